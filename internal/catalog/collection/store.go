package collection

import (
	"context"
	"time"
)

type Repository interface {
	ListCollections(context context.Context, f Filter, limit, offset int, order, orderBy string) ([]*Collection, int, error)
	GetCollection(context context.Context, id int64) (*Collection, error)
	CreateCollection(context context.Context, c *Collection) error
	UpdateCollection(context context.Context, id int64, p Patch) (*Collection, error)
	DeleteCollection(context context.Context, id int64) error

	// AdjustWearablesCount applies a signed delta atomically in SQL.
	AdjustWearablesCount(context context.Context, id int64, delta int) error
	MarkHasPublishedEditions(context context.Context, id int64) error

	// DeactivateBySerie sets every Collection of the Serie INACTIVE and
	// returns the affected row count.
	DeactivateBySerie(context context.Context, serieID int64) (int64, error)

	// EditionNamesPublishedBefore returns the names of the Collection's
	// Editions whose publish_time precedes the given instant.
	EditionNamesPublishedBefore(context context.Context, collectionID int64, t time.Time) ([]string, error)
}
