package schema

// CollectionTable represents the 'collections' table
type CollectionTable struct {
	Table                string
	ID                   string
	UUID                 string
	Name                 string
	Description          string
	ShortWord            string
	Status               string
	PublishTime          string
	FlowID               string
	SerieID              string
	WearablesCount       string
	HasPublishedEditions string
	CreatedAt            string
	UpdatedAt            string
}

// Collection is the schema definition for collections
var Collection = CollectionTable{
	Table:                "collections",
	ID:                   "id",
	UUID:                 "uuid",
	Name:                 "name",
	Description:          "description",
	ShortWord:            "short_word",
	Status:               "status",
	PublishTime:          "publish_time",
	FlowID:               "flow_id",
	SerieID:              "serie_id",
	WearablesCount:       "wearables_count",
	HasPublishedEditions: "has_published_editions",
	CreatedAt:            "created_at",
	UpdatedAt:            "updated_at",
}

func (t CollectionTable) Columns() []string {
	return []string{
		t.ID, t.UUID, t.Name, t.Description, t.ShortWord, t.Status,
		t.PublishTime, t.FlowID, t.SerieID, t.WearablesCount,
		t.HasPublishedEditions, t.CreatedAt, t.UpdatedAt,
	}
}
