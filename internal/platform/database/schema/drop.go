package schema

// DropTable represents the 'drops' table
type DropTable struct {
	Table       string
	ID          string
	UUID        string
	Title       string
	Description string
	ImageURL    string
	Status      string
	StartTime   string
	EndTime     string
	PublishTime string
	ExternalID  string
	CreatedAt   string
	UpdatedAt   string
}

// Drop is the schema definition for drops
var Drop = DropTable{
	Table:       "drops",
	ID:          "id",
	UUID:        "uuid",
	Title:       "title",
	Description: "description",
	ImageURL:    "image_url",
	Status:      "status",
	StartTime:   "start_time",
	EndTime:     "end_time",
	PublishTime: "publish_time",
	ExternalID:  "external_id",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
}

func (t DropTable) Columns() []string {
	return []string{
		t.ID, t.UUID, t.Title, t.Description, t.ImageURL, t.Status,
		t.StartTime, t.EndTime, t.PublishTime, t.ExternalID,
		t.CreatedAt, t.UpdatedAt,
	}
}
