package schema

// AssetsExtraTable represents the 'assets_extras' table, keyed by the
// wearable id in the CMS.
type AssetsExtraTable struct {
	Table            string
	AvatarWearableID string
	UUID             string
	Images           string
	Videos           string
	CreatedAt        string
	UpdatedAt        string
}

// AssetsExtra is the schema definition for assets_extras
var AssetsExtra = AssetsExtraTable{
	Table:            "assets_extras",
	AvatarWearableID: "avatar_wearable_id",
	UUID:             "uuid",
	Images:           "images",
	Videos:           "videos",
	CreatedAt:        "created_at",
	UpdatedAt:        "updated_at",
}

func (t AssetsExtraTable) Columns() []string {
	return []string{t.AvatarWearableID, t.UUID, t.Images, t.Videos, t.CreatedAt, t.UpdatedAt}
}
