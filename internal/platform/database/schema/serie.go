package schema

// SerieTable represents the 'series' table
type SerieTable struct {
	Table                string
	ID                   string
	UUID                 string
	Name                 string
	Description          string
	ShortWord            string
	Status               string
	PublishTime          string
	FlowID               string
	CollectionsCount     string
	HasPublishedEditions string
	CreatedAt            string
	UpdatedAt            string
}

// Serie is the schema definition for series
var Serie = SerieTable{
	Table:                "series",
	ID:                   "id",
	UUID:                 "uuid",
	Name:                 "name",
	Description:          "description",
	ShortWord:            "short_word",
	Status:               "status",
	PublishTime:          "publish_time",
	FlowID:               "flow_id",
	CollectionsCount:     "collections_count",
	HasPublishedEditions: "has_published_editions",
	CreatedAt:            "created_at",
	UpdatedAt:            "updated_at",
}

func (t SerieTable) Columns() []string {
	return []string{
		t.ID, t.UUID, t.Name, t.Description, t.ShortWord, t.Status,
		t.PublishTime, t.FlowID, t.CollectionsCount, t.HasPublishedEditions,
		t.CreatedAt, t.UpdatedAt,
	}
}
