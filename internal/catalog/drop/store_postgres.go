package drop

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wearmint/catalog/internal/platform/database/schema"
	"github.com/wearmint/catalog/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func dropColumns() string {
	return strings.Join(schema.Drop.Columns(), ", ")
}

func scanDrop(row interface{ Scan(...any) error }) (*Drop, error) {
	d := &Drop{}
	err := row.Scan(
		&d.ID, &d.UUID, &d.Title, &d.Description, &d.ImageURL, &d.Status,
		&d.StartTime, &d.EndTime, &d.PublishTime, &d.ExternalID,
		&d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

func (repository *PostgresRepository) ListDrops(context context.Context, f Filter, limit, offset int, order, orderBy string) ([]*Drop, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, status := range f.Statuses {
			args = append(args, status)
			placeholders[i] = "$" + itos(len(args))
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", schema.Drop.Status, strings.Join(placeholders, ", ")))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		where = append(where, fmt.Sprintf("%s ILIKE $%s", schema.Drop.Title, itos(len(args))))
	}

	condition := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, schema.Drop.Table, condition)
	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_drops")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s %s LIMIT $%s OFFSET $%s`,
		dropColumns(), schema.Drop.Table, condition, orderBy, order,
		itos(len(args)+1), itos(len(args)+2),
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_drops")
	}
	defer rows.Close()

	var drops []*Drop
	for rows.Next() {
		d, err := scanDrop(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_drop")
		}
		drops = append(drops, d)
	}

	return drops, total, nil
}

func (repository *PostgresRepository) GetDrop(context context.Context, id int64) (*Drop, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		dropColumns(), schema.Drop.Table, schema.Drop.ID,
	)

	d, err := scanDrop(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_drop")
	}

	if d.Editions, err = repository.listDropEditions(context, id); err != nil {
		return nil, err
	}
	return d, nil
}

func (repository *PostgresRepository) listDropEditions(context context.Context, dropID int64) ([]*DropEdition, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s ASC
	`,
		schema.DropEdition.DropID, schema.DropEdition.EditionID, schema.DropEdition.UUID,
		schema.DropEdition.Price, schema.DropEdition.CreatedAt, schema.DropEdition.UpdatedAt,
		schema.DropEdition.Table, schema.DropEdition.DropID, schema.DropEdition.CreatedAt,
	)

	rows, err := repository.db.Query(context, query, dropID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_drop_editions")
	}
	defer rows.Close()

	var dropEditions []*DropEdition
	for rows.Next() {
		dropEdition := &DropEdition{}
		if err := rows.Scan(
			&dropEdition.DropID, &dropEdition.EditionID, &dropEdition.UUID,
			&dropEdition.Price, &dropEdition.CreatedAt, &dropEdition.UpdatedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_drop_edition")
		}
		dropEditions = append(dropEditions, dropEdition)
	}
	return dropEditions, nil
}

func (repository *PostgresRepository) CreateDrop(context context.Context, d *Drop) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Drop.Table, schema.Drop.UUID, schema.Drop.Title, schema.Drop.Description,
		schema.Drop.ImageURL, schema.Drop.Status, schema.Drop.StartTime,
		schema.Drop.EndTime, schema.Drop.PublishTime,
		schema.Drop.CreatedAt, schema.Drop.UpdatedAt,
		schema.Drop.ID, schema.Drop.CreatedAt, schema.Drop.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		d.UUID, d.Title, d.Description, d.ImageURL, d.Status,
		d.StartTime, d.EndTime, d.PublishTime,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return dberr.Wrap(err, "create_drop")
}

func (repository *PostgresRepository) UpdateDrop(context context.Context, id int64, p Patch) (*Drop, error) {
	sets := []string{}
	args := []any{id}

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%s", column, itos(len(args))))
	}

	if p.Title != nil {
		set(schema.Drop.Title, *p.Title)
	}
	if p.Description != nil {
		set(schema.Drop.Description, *p.Description)
	}
	if p.ImageURL != nil {
		set(schema.Drop.ImageURL, *p.ImageURL)
	}
	if p.Status != nil {
		set(schema.Drop.Status, *p.Status)
	}
	if p.StartTime != nil {
		set(schema.Drop.StartTime, *p.StartTime)
	}
	if p.EndTime != nil {
		set(schema.Drop.EndTime, *p.EndTime)
	}
	if p.PublishTime != nil {
		set(schema.Drop.PublishTime, *p.PublishTime)
	}
	if p.ExternalID != nil {
		set(schema.Drop.ExternalID, *p.ExternalID)
	}

	if len(sets) == 0 {
		return repository.GetDrop(context, id)
	}
	sets = append(sets, fmt.Sprintf("%s = NOW()", schema.Drop.UpdatedAt))

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 RETURNING %s`,
		schema.Drop.Table, strings.Join(sets, ", "), schema.Drop.ID, dropColumns(),
	)

	d, err := scanDrop(repository.db.QueryRow(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "update_drop")
	}

	if d.Editions, err = repository.listDropEditions(context, id); err != nil {
		return nil, err
	}
	return d, nil
}

func (repository *PostgresRepository) DeleteDrop(context context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Drop.Table, schema.Drop.ID)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_drop")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) CreateDropEdition(context context.Context, de *DropEdition) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING %s, %s
	`,
		schema.DropEdition.Table, schema.DropEdition.DropID, schema.DropEdition.EditionID,
		schema.DropEdition.UUID, schema.DropEdition.Price,
		schema.DropEdition.CreatedAt, schema.DropEdition.UpdatedAt,
		schema.DropEdition.CreatedAt, schema.DropEdition.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		de.DropID, de.EditionID, de.UUID, de.Price,
	).Scan(&de.CreatedAt, &de.UpdatedAt)
	return dberr.Wrap(err, "create_drop_edition")
}

func (repository *PostgresRepository) UpdateDropEditionPrice(context context.Context, dropID, editionID int64, price float64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $3, %s = NOW() WHERE %s = $1 AND %s = $2`,
		schema.DropEdition.Table, schema.DropEdition.Price, schema.DropEdition.UpdatedAt,
		schema.DropEdition.DropID, schema.DropEdition.EditionID,
	)

	cmd, err := repository.db.Exec(context, query, dropID, editionID, price)
	if err != nil {
		return dberr.Wrap(err, "update_drop_edition_price")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) DeleteDropEdition(context context.Context, dropID, editionID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.DropEdition.Table, schema.DropEdition.DropID, schema.DropEdition.EditionID,
	)

	cmd, err := repository.db.Exec(context, query, dropID, editionID)
	if err != nil {
		return dberr.Wrap(err, "delete_drop_edition")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func itos(i int) string {
	return strconv.Itoa(i)
}
