package serie

import (
	"context"
	"time"
)

type Repository interface {
	ListSeries(context context.Context, f Filter, limit, offset int, order, orderBy string) ([]*Serie, int, error)
	GetSerie(context context.Context, id int64) (*Serie, error)
	CreateSerie(context context.Context, s *Serie) error
	UpdateSerie(context context.Context, id int64, p Patch) (*Serie, error)
	DeleteSerie(context context.Context, id int64) error

	// AdjustCollectionsCount applies a signed delta atomically in SQL.
	AdjustCollectionsCount(context context.Context, id int64, delta int) error
	MarkHasPublishedEditions(context context.Context, id int64) error

	// CollectionNamesPublishedBefore returns the names of the Serie's
	// Collections whose publish_time precedes the given instant.
	CollectionNamesPublishedBefore(context context.Context, serieID int64, t time.Time) ([]string, error)

	// ActiveSerieHasCollectionAfter reports whether any ACTIVE Serie owns a
	// Collection scheduled to publish after the given instant.
	ActiveSerieHasCollectionAfter(context context.Context, t time.Time) (bool, error)

	// ListActiveSerieIDs returns the ids of all ACTIVE series.
	ListActiveSerieIDs(context context.Context) ([]int64, error)
}
