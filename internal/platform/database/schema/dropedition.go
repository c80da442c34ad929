package schema

// DropEditionTable represents the 'drop_editions' join table.
// (drop_id, edition_id) is the composite primary key, which makes
// double-adding an Edition to the same Drop a constraint violation.
type DropEditionTable struct {
	Table     string
	DropID    string
	EditionID string
	UUID      string
	Price     string
	CreatedAt string
	UpdatedAt string
}

// DropEdition is the schema definition for drop_editions
var DropEdition = DropEditionTable{
	Table:     "drop_editions",
	DropID:    "drop_id",
	EditionID: "edition_id",
	UUID:      "uuid",
	Price:     "price",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

func (t DropEditionTable) Columns() []string {
	return []string{t.DropID, t.EditionID, t.UUID, t.Price, t.CreatedAt, t.UpdatedAt}
}
