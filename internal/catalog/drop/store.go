package drop

import "context"

type Repository interface {
	ListDrops(context context.Context, f Filter, limit, offset int, order, orderBy string) ([]*Drop, int, error)
	// GetDrop loads the Drop together with its editions.
	GetDrop(context context.Context, id int64) (*Drop, error)
	CreateDrop(context context.Context, d *Drop) error
	UpdateDrop(context context.Context, id int64, p Patch) (*Drop, error)
	DeleteDrop(context context.Context, id int64) error

	CreateDropEdition(context context.Context, de *DropEdition) error
	UpdateDropEditionPrice(context context.Context, dropID, editionID int64, price float64) error
	DeleteDropEdition(context context.Context, dropID, editionID int64) error
}
