package schema

// EditionTable represents the 'editions' table
type EditionTable struct {
	Table             string
	ID                string
	UUID              string
	Name              string
	Description       string
	Artist            string
	AvatarWearableID  string
	AvatarWearableSKU string
	Celebrity         string
	DesignSlot        string
	Publisher         string
	Rarity            string
	Trademark         string
	Type              string
	Price             string
	ReservePercentage string
	Status            string
	PublishTime       string
	FlowID            string
	ExternalID        string
	CollectionID      string
	CreatedAt         string
	UpdatedAt         string
}

// Edition is the schema definition for editions
var Edition = EditionTable{
	Table:             "editions",
	ID:                "id",
	UUID:              "uuid",
	Name:              "name",
	Description:       "description",
	Artist:            "artist",
	AvatarWearableID:  "avatar_wearable_id",
	AvatarWearableSKU: "avatar_wearable_sku",
	Celebrity:         "celebrity",
	DesignSlot:        "design_slot",
	Publisher:         "publisher",
	Rarity:            "rarity",
	Trademark:         "trademark",
	Type:              "type",
	Price:             "price",
	ReservePercentage: "reserve_percentage",
	Status:            "status",
	PublishTime:       "publish_time",
	FlowID:            "flow_id",
	ExternalID:        "external_id",
	CollectionID:      "collection_id",
	CreatedAt:         "created_at",
	UpdatedAt:         "updated_at",
}

func (t EditionTable) Columns() []string {
	return []string{
		t.ID, t.UUID, t.Name, t.Description, t.Artist, t.AvatarWearableID,
		t.AvatarWearableSKU, t.Celebrity, t.DesignSlot, t.Publisher, t.Rarity,
		t.Trademark, t.Type, t.Price, t.ReservePercentage, t.Status,
		t.PublishTime, t.FlowID, t.ExternalID, t.CollectionID,
		t.CreatedAt, t.UpdatedAt,
	}
}
