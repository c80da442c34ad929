package drop

import "time"

// Status is the lifecycle state of a Drop.
//
// A DRAFT Drop becomes PUBLISHED when pushed to the minting provider, moves
// to ON_SALE at its start_time, and to FINISHED at its end_time.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusOnSale    Status = "ON_SALE"
	StatusFinished  Status = "FINISHED"
)

// Drop is a timed sale event grouping Editions with per-drop prices.
type Drop struct {
	ID          int64      `json:"id"`
	UUID        string     `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	Status      Status     `json:"status"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	PublishTime *time.Time `json:"publish_time"`
	// ExternalID is the provider-side drop identifier, set at publication.
	ExternalID *string   `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Editions is loaded on single-drop reads.
	Editions []*DropEdition `json:"editions,omitempty"`
}

// DropEdition links an Edition to a Drop with its sale price there.
type DropEdition struct {
	DropID    int64     `json:"-"`
	EditionID int64     `json:"edition_id"`
	UUID      string    `json:"-"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EditionItem is the edition line of a Drop create or update request.
type EditionItem struct {
	EditionID int64   `json:"edition_id"`
	Price     float64 `json:"price"`
}

// Patch is a sparse update: nil fields are left untouched.
type Patch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"`
	Status      *Status    `json:"-"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	PublishTime *time.Time `json:"publish_time"`
	ExternalID  *string    `json:"-"`
}

// Filter holds the parameters for a paginated Drop search.
type Filter struct {
	Statuses []Status
	// Keyword matches against the title.
	Keyword string
}

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldImageURL    = "image_url"
	FieldEditions    = "drop_editions"
)

// SortableColumns are the whitelisted order_by values for Drop lists.
var SortableColumns = []string{"title", "start_time", "end_time", "publish_time", "created_at", "status"}
