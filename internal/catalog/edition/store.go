package edition

import (
	"context"
	"time"
)

type Repository interface {
	ListEditions(context context.Context, f Filter, limit, offset int, order, orderBy string) ([]*Edition, int, error)
	GetEdition(context context.Context, id int64) (*Edition, error)
	CreateEdition(context context.Context, e *Edition) error
	UpdateEdition(context context.Context, id int64, p Patch) (*Edition, error)
	DeleteEdition(context context.Context, id int64) error

	// HasCreating reports whether any Edition is currently in CREATING.
	// Only one on-chain creation may be in flight at a time.
	HasCreating(context context.Context) (bool, error)

	// DropTitlesPublishedBefore returns the titles of Drops containing the
	// Edition whose publish_time precedes the given instant.
	DropTitlesPublishedBefore(context context.Context, editionID int64, t time.Time) ([]string, error)

	// ListEditableBySerie returns the DRAFT and ERROR Editions under any
	// Collection of the Serie, for SKU cascades.
	ListEditableBySerie(context context.Context, serieID int64) ([]*Edition, error)
	// ListEditableByCollection returns the DRAFT and ERROR Editions of the
	// Collection, for SKU cascades.
	ListEditableByCollection(context context.Context, collectionID int64) ([]*Edition, error)
	UpdateWearableSKU(context context.Context, id int64, sku string) error

	GetAssetsExtras(context context.Context, avatarWearableID int64) (*AssetsExtras, error)
	UpsertAssetsExtras(context context.Context, extras *AssetsExtras) error

	ListErrors(context context.Context, editionID int64, limit, offset int) ([]*EditionError, int, error)
	CreateError(context context.Context, editionError *EditionError) error
}
