package edition

import "time"

// Status is the lifecycle state of an Edition.
//
// DRAFT and ERROR editions are editable and deletable. Publishing moves a
// draft to CREATING while the minting provider confirms the on-chain asset,
// then to CREATED. Minting NFTs moves it to MINTED, and a completed sale
// push to ON_SALE. ERROR marks a failed on-chain creation; the Edition can
// be fixed and published again.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusCreating Status = "CREATING"
	StatusCreated  Status = "CREATED"
	StatusMinted   Status = "MINTED"
	StatusOnSale   Status = "ON_SALE"
	StatusError    Status = "ERROR"
)

// Editable reports whether the status still allows free edits.
func (status Status) Editable() bool {
	return status == StatusDraft || status == StatusError
}

// Edition is a sellable wearable design inside a Collection.
type Edition struct {
	ID          int64  `json:"id"`
	UUID        string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Artist      string `json:"artist"`
	// AvatarWearableID references the wearable asset in the CMS.
	AvatarWearableID  int64  `json:"avatar_wearable_id"`
	AvatarWearableSKU string `json:"avatar_wearable_sku"`
	Celebrity         string `json:"celebrity"`
	DesignSlot        string `json:"design_slot"`
	Publisher         string `json:"publisher"`
	Rarity            string `json:"rarity"`
	Trademark         string `json:"trademark"`
	Type              string `json:"type"`
	Price             *float64 `json:"price"`
	// ReservePercentage is the share of minted NFTs held back from sale.
	ReservePercentage *int       `json:"reserve_percentage"`
	Status            Status     `json:"status"`
	PublishTime       *time.Time `json:"publish_time"`
	FlowID            *int64     `json:"flow_id"`
	// ExternalID is the provider-side edition identifier, known only after
	// the on-chain creation is confirmed.
	ExternalID   *string   `json:"external_id"`
	CollectionID int64     `json:"collection_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Patch is a sparse update: nil fields are left untouched.
type Patch struct {
	Name              *string    `json:"name"`
	Description       *string    `json:"description"`
	Artist            *string    `json:"artist"`
	AvatarWearableID  *int64     `json:"avatar_wearable_id"`
	AvatarWearableSKU *string    `json:"-"`
	Celebrity         *string    `json:"celebrity"`
	DesignSlot        *string    `json:"design_slot"`
	Publisher         *string    `json:"publisher"`
	Rarity            *string    `json:"rarity"`
	Trademark         *string    `json:"trademark"`
	Type              *string    `json:"type"`
	Price             *float64   `json:"price"`
	ReservePercentage *int       `json:"reserve_percentage"`
	Status            *Status    `json:"-"`
	PublishTime       *time.Time `json:"publish_time"`
	FlowID            *int64     `json:"-"`
	ExternalID        *string    `json:"-"`
	CollectionID      *int64     `json:"-"`
}

// Filter holds the parameters for a paginated Edition search.
type Filter struct {
	Statuses         []Status
	CollectionID     int64
	AvatarWearableID int64
	// Keyword matches against name and avatar_wearable_sku.
	Keyword string
}

// EditionError is an append-only record of a failed on-chain operation.
type EditionError struct {
	ID        int64  `json:"id"`
	EditionID int64  `json:"edition_id"`
	Type      string `json:"type"`
	Error     string `json:"error"`
	// SuggestedSolution tells the operator how to recover.
	SuggestedSolution string    `json:"suggested_solution"`
	CreatedAt         time.Time `json:"created_at"`
}

// AssetsExtras holds the media files of a wearable, split by kind. The
// catalog only stores the URLs; the files live in the CMS.
type AssetsExtras struct {
	AvatarWearableID int64    `json:"avatar_wearable_id"`
	UUID             string   `json:"-"`
	Images           []string `json:"images"`
	Videos           []string `json:"videos"`
}

const (
	FieldName              = "name"
	FieldDescription       = "description"
	FieldArtist            = "artist"
	FieldAvatarWearableSKU = "avatar_wearable_sku"
	FieldCelebrity         = "celebrity"
	FieldDesignSlot        = "design_slot"
	FieldPublisher         = "publisher"
	FieldRarity            = "rarity"
	FieldTrademark         = "trademark"
	FieldType              = "type"
	FieldPrice             = "price"
	FieldReservePct        = "reserve_percentage"
	FieldAvatarWearableID  = "avatar_wearable_id"
	FieldCollectionID      = "collection_id"
)

// SortableColumns are the whitelisted order_by values for Edition lists.
var SortableColumns = []string{"name", "publish_time", "created_at", "status", "price"}
