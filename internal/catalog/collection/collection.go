package collection

import "time"

// Status is the lifecycle state of a Collection.
//
// DRAFT collections are fully editable. PUBLISHED collections exist on-chain
// and freeze their identity fields. INACTIVE is terminal and set when the
// owning Serie is deactivated.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusInactive  Status = "INACTIVE"
)

// Collection groups the Editions of a Serie.
type Collection struct {
	ID          int64      `json:"id"`
	UUID        string     `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ShortWord   string     `json:"short_word"`
	Status      Status     `json:"status"`
	PublishTime *time.Time `json:"publish_time"`
	FlowID      *int64     `json:"flow_id"`
	SerieID     int64      `json:"serie_id"`
	// WearablesCount blocks deletion while editions reference the
	// Collection.
	WearablesCount       int       `json:"wearables_count"`
	HasPublishedEditions bool      `json:"has_published_editions"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Patch is a sparse update: nil fields are left untouched.
type Patch struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	ShortWord   *string    `json:"short_word"`
	Status      *Status    `json:"status"`
	PublishTime *time.Time `json:"publish_time"`
	SerieID     *int64     `json:"serie_id"`
	FlowID      *int64     `json:"-"`
}

// Filter holds the parameters for a paginated Collection search.
type Filter struct {
	Statuses []Status
	SerieID  int64
	// Keyword matches against name and short_word.
	Keyword string
}

const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldShortWord   = "short_word"
	FieldSerieID     = "serie_id"
)

// SortableColumns are the whitelisted order_by values for Collection lists.
var SortableColumns = []string{"name", "publish_time", "created_at", "status"}
