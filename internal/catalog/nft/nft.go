package nft

import "time"

// Status is the lifecycle state of an NFT.
type Status string

const (
	StatusMinted Status = "MINTED"
	StatusGifted Status = "GIFTED"
)

// NFT is one minted unit of an Edition. The flow id doubles as the public
// serial number.
type NFT struct {
	ID   int64  `json:"id"`
	UUID string `json:"-"`
	// Reserved units are held back from the public sale.
	Reserved  bool      `json:"reserved"`
	Status    Status    `json:"status"`
	FlowID    *int64    `json:"serial_number"`
	EditionID int64     `json:"edition_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Denormalized edition data for list views.
	EditionName       string `json:"edition_name,omitempty"`
	AvatarWearableSKU string `json:"avatar_wearable_sku,omitempty"`
}

// Filter holds the parameters for a paginated NFT search.
type Filter struct {
	Statuses     []Status
	Reserved     *bool
	Rarity       string
	SerieID      int64
	CollectionID int64
	// Keyword matches the serial number and the names and short_words of the
	// owning Edition, Collection, and Serie.
	Keyword string
}
