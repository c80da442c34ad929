package schema

// EditionErrorTable represents the append-only 'editions_errors' table
type EditionErrorTable struct {
	Table             string
	ID                string
	EditionID         string
	Type              string
	Error             string
	SuggestedSolution string
	CreatedAt         string
	UpdatedAt         string
}

// EditionError is the schema definition for editions_errors
var EditionError = EditionErrorTable{
	Table:             "editions_errors",
	ID:                "id",
	EditionID:         "edition_id",
	Type:              "type",
	Error:             "error",
	SuggestedSolution: "suggested_solution",
	CreatedAt:         "created_at",
	UpdatedAt:         "updated_at",
}

func (t EditionErrorTable) Columns() []string {
	return []string{t.ID, t.EditionID, t.Type, t.Error, t.SuggestedSolution, t.CreatedAt, t.UpdatedAt}
}
