package schema

// NFTTable represents the 'nfts' table
type NFTTable struct {
	Table     string
	ID        string
	UUID      string
	Reserved  string
	Status    string
	FlowID    string
	EditionID string
	CreatedAt string
	UpdatedAt string
}

// NFT is the schema definition for nfts
var NFT = NFTTable{
	Table:     "nfts",
	ID:        "id",
	UUID:      "uuid",
	Reserved:  "reserved",
	Status:    "status",
	FlowID:    "flow_id",
	EditionID: "edition_id",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

func (t NFTTable) Columns() []string {
	return []string{t.ID, t.UUID, t.Reserved, t.Status, t.FlowID, t.EditionID, t.CreatedAt, t.UpdatedAt}
}
