package serie

import "time"

// Status is the lifecycle state of a Serie.
//
// DRAFT series are fully editable. Publishing promotes a Serie to ACTIVE and
// demotes the previously ACTIVE one to INACTIVE; at most one Serie is ACTIVE
// at a time. INACTIVE is terminal.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Serie is the top level of the catalog hierarchy.
type Serie struct {
	ID          int64      `json:"id"`
	UUID        string     `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ShortWord   string     `json:"short_word"`
	Status      Status     `json:"status"`
	PublishTime *time.Time `json:"publish_time"`
	// FlowID is the external identifier assigned by the minting provider
	// when the Serie is pushed on-chain.
	FlowID               *int64    `json:"flow_id"`
	CollectionsCount     int       `json:"collections_count"`
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
	FlowID      *int64     `json:"-"`
}

// Filter holds the parameters for a paginated Serie search.
type Filter struct {
	Statuses []Status
	// Keyword matches against name and short_word.
	Keyword string
}

const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldShortWord   = "short_word"
	FieldPublishTime = "publish_time"
)

// SortableColumns are the whitelisted order_by values for Serie lists.
var SortableColumns = []string{"name", "publish_time", "created_at", "status"}
