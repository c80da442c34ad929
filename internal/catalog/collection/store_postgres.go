package collection

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

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

func collectionColumns() string {
	return strings.Join(schema.Collection.Columns(), ", ")
}

func scanCollection(row interface{ Scan(...any) error }) (*Collection, error) {
	c := &Collection{}
	err := row.Scan(
		&c.ID, &c.UUID, &c.Name, &c.Description, &c.ShortWord, &c.Status,
		&c.PublishTime, &c.FlowID, &c.SerieID, &c.WearablesCount,
		&c.HasPublishedEditions, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (repository *PostgresRepository) ListCollections(context context.Context, f Filter, limit, offset int, order, orderBy string) ([]*Collection, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, status := range f.Statuses {
			args = append(args, status)
			placeholders[i] = "$" + itos(len(args))
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", schema.Collection.Status, strings.Join(placeholders, ", ")))
	}
	if f.SerieID != 0 {
		args = append(args, f.SerieID)
		where = append(where, fmt.Sprintf("%s = $%s", schema.Collection.SerieID, itos(len(args))))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		placeholder := "$" + itos(len(args))
		where = append(where, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s)",
			schema.Collection.Name, placeholder, schema.Collection.ShortWord, placeholder))
	}

	condition := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, schema.Collection.Table, condition)
	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_collections")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s %s LIMIT $%s OFFSET $%s`,
		collectionColumns(), schema.Collection.Table, condition, orderBy, order,
		itos(len(args)+1), itos(len(args)+2),
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_collections")
	}
	defer rows.Close()

	var collections []*Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_collection")
		}
		collections = append(collections, c)
	}

	return collections, total, nil
}

func (repository *PostgresRepository) GetCollection(context context.Context, id int64) (*Collection, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		collectionColumns(), schema.Collection.Table, schema.Collection.ID,
	)

	c, err := scanCollection(repository.db.QueryRow(context, query, id))
	return c, dberr.Wrap(err, "get_collection")
}

func (repository *PostgresRepository) CreateCollection(context context.Context, c *Collection) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Collection.Table, schema.Collection.UUID, schema.Collection.Name,
		schema.Collection.Description, schema.Collection.ShortWord, schema.Collection.Status,
		schema.Collection.PublishTime, schema.Collection.SerieID,
		schema.Collection.CreatedAt, schema.Collection.UpdatedAt,
		schema.Collection.ID, schema.Collection.CreatedAt, schema.Collection.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		c.UUID, c.Name, c.Description, c.ShortWord, c.Status, c.PublishTime, c.SerieID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return dberr.Wrap(err, "create_collection")
}

func (repository *PostgresRepository) UpdateCollection(context context.Context, id int64, p Patch) (*Collection, error) {
	sets := []string{}
	args := []any{id}

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%s", column, itos(len(args))))
	}

	if p.Name != nil {
		set(schema.Collection.Name, *p.Name)
	}
	if p.Description != nil {
		set(schema.Collection.Description, *p.Description)
	}
	if p.ShortWord != nil {
		set(schema.Collection.ShortWord, *p.ShortWord)
	}
	if p.Status != nil {
		set(schema.Collection.Status, *p.Status)
	}
	if p.PublishTime != nil {
		set(schema.Collection.PublishTime, *p.PublishTime)
	}
	if p.SerieID != nil {
		set(schema.Collection.SerieID, *p.SerieID)
	}
	if p.FlowID != nil {
		set(schema.Collection.FlowID, *p.FlowID)
	}

	if len(sets) == 0 {
		return repository.GetCollection(context, id)
	}
	sets = append(sets, fmt.Sprintf("%s = NOW()", schema.Collection.UpdatedAt))

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 RETURNING %s`,
		schema.Collection.Table, strings.Join(sets, ", "), schema.Collection.ID, collectionColumns(),
	)

	c, err := scanCollection(repository.db.QueryRow(context, query, args...))
	return c, dberr.Wrap(err, "update_collection")
}

func (repository *PostgresRepository) DeleteCollection(context context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Collection.Table, schema.Collection.ID)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_collection")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) AdjustWearablesCount(context context.Context, id int64, delta int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + $2, %s = NOW() WHERE %s = $1`,
		schema.Collection.Table, schema.Collection.WearablesCount, schema.Collection.WearablesCount,
		schema.Collection.UpdatedAt, schema.Collection.ID,
	)

	cmd, err := repository.db.Exec(context, query, id, delta)
	if err != nil {
		return dberr.Wrap(err, "adjust_wearables_count")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) MarkHasPublishedEditions(context context.Context, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = NOW() WHERE %s = $1`,
		schema.Collection.Table, schema.Collection.HasPublishedEditions,
		schema.Collection.UpdatedAt, schema.Collection.ID,
	)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "mark_has_published_editions")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) DeactivateBySerie(context context.Context, serieID int64) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1 AND %s <> $2`,
		schema.Collection.Table, schema.Collection.Status, schema.Collection.UpdatedAt,
		schema.Collection.SerieID, schema.Collection.Status,
	)

	cmd, err := repository.db.Exec(context, query, serieID, StatusInactive)
	if err != nil {
		return 0, dberr.Wrap(err, "deactivate_serie_collections")
	}
	return cmd.RowsAffected(), nil
}

func (repository *PostgresRepository) EditionNamesPublishedBefore(context context.Context, collectionID int64, t time.Time) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s IS NOT NULL AND %s < $2
		ORDER BY %s ASC
	`,
		schema.Edition.Name, schema.Edition.Table,
		schema.Edition.CollectionID, schema.Edition.PublishTime, schema.Edition.PublishTime,
		schema.Edition.PublishTime,
	)

	rows, err := repository.db.Query(context, query, collectionID, t)
	if err != nil {
		return nil, dberr.Wrap(err, "edition_names_published_before")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, dberr.Wrap(err, "scan_edition_name")
		}
		names = append(names, name)
	}
	return names, nil
}

func itos(i int) string {
	return strconv.Itoa(i)
}
