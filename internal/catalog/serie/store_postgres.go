package serie

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

func serieColumns() string {
	return strings.Join(schema.Serie.Columns(), ", ")
}

func scanSerie(row interface{ Scan(...any) error }) (*Serie, error) {
	s := &Serie{}
	err := row.Scan(
		&s.ID, &s.UUID, &s.Name, &s.Description, &s.ShortWord, &s.Status,
		&s.PublishTime, &s.FlowID, &s.CollectionsCount, &s.HasPublishedEditions,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (repository *PostgresRepository) ListSeries(context context.Context, f Filter, limit, offset int, order, orderBy string) ([]*Serie, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, status := range f.Statuses {
			args = append(args, status)
			placeholders[i] = "$" + itos(len(args))
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", schema.Serie.Status, strings.Join(placeholders, ", ")))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		placeholder := "$" + itos(len(args))
		where = append(where, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s)",
			schema.Serie.Name, placeholder, schema.Serie.ShortWord, placeholder))
	}

	condition := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, schema.Serie.Table, condition)
	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_series")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s %s LIMIT $%s OFFSET $%s`,
		serieColumns(), schema.Serie.Table, condition, orderBy, order,
		itos(len(args)+1), itos(len(args)+2),
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_series")
	}
	defer rows.Close()

	var series []*Serie
	for rows.Next() {
		s, err := scanSerie(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_serie")
		}
		series = append(series, s)
	}

	return series, total, nil
}

func (repository *PostgresRepository) GetSerie(context context.Context, id int64) (*Serie, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		serieColumns(), schema.Serie.Table, schema.Serie.ID,
	)

	s, err := scanSerie(repository.db.QueryRow(context, query, id))
	return s, dberr.Wrap(err, "get_serie")
}

func (repository *PostgresRepository) CreateSerie(context context.Context, s *Serie) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Serie.Table, schema.Serie.UUID, schema.Serie.Name, schema.Serie.Description,
		schema.Serie.ShortWord, schema.Serie.Status, schema.Serie.PublishTime,
		schema.Serie.CreatedAt, schema.Serie.UpdatedAt,
		schema.Serie.ID, schema.Serie.CreatedAt, schema.Serie.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		s.UUID, s.Name, s.Description, s.ShortWord, s.Status, s.PublishTime,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return dberr.Wrap(err, "create_serie")
}

func (repository *PostgresRepository) UpdateSerie(context context.Context, id int64, p Patch) (*Serie, error) {
	sets := []string{}
	args := []any{id}

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%s", column, itos(len(args))))
	}

	if p.Name != nil {
		set(schema.Serie.Name, *p.Name)
	}
	if p.Description != nil {
		set(schema.Serie.Description, *p.Description)
	}
	if p.ShortWord != nil {
		set(schema.Serie.ShortWord, *p.ShortWord)
	}
	if p.Status != nil {
		set(schema.Serie.Status, *p.Status)
	}
	if p.PublishTime != nil {
		set(schema.Serie.PublishTime, *p.PublishTime)
	}
	if p.FlowID != nil {
		set(schema.Serie.FlowID, *p.FlowID)
	}

	if len(sets) == 0 {
		return repository.GetSerie(context, id)
	}
	sets = append(sets, fmt.Sprintf("%s = NOW()", schema.Serie.UpdatedAt))

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 RETURNING %s`,
		schema.Serie.Table, strings.Join(sets, ", "), schema.Serie.ID, serieColumns(),
	)

	s, err := scanSerie(repository.db.QueryRow(context, query, args...))
	return s, dberr.Wrap(err, "update_serie")
}

func (repository *PostgresRepository) DeleteSerie(context context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Serie.Table, schema.Serie.ID)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_serie")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) AdjustCollectionsCount(context context.Context, id int64, delta int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + $2, %s = NOW() WHERE %s = $1`,
		schema.Serie.Table, schema.Serie.CollectionsCount, schema.Serie.CollectionsCount,
		schema.Serie.UpdatedAt, schema.Serie.ID,
	)

	cmd, err := repository.db.Exec(context, query, id, delta)
	if err != nil {
		return dberr.Wrap(err, "adjust_collections_count")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) MarkHasPublishedEditions(context context.Context, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = NOW() WHERE %s = $1`,
		schema.Serie.Table, schema.Serie.HasPublishedEditions, schema.Serie.UpdatedAt, schema.Serie.ID,
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

func (repository *PostgresRepository) CollectionNamesPublishedBefore(context context.Context, serieID int64, t time.Time) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s IS NOT NULL AND %s < $2
		ORDER BY %s ASC
	`,
		schema.Collection.Name, schema.Collection.Table,
		schema.Collection.SerieID, schema.Collection.PublishTime, schema.Collection.PublishTime,
		schema.Collection.PublishTime,
	)

	rows, err := repository.db.Query(context, query, serieID, t)
	if err != nil {
		return nil, dberr.Wrap(err, "collection_names_published_before")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, dberr.Wrap(err, "scan_collection_name")
		}
		names = append(names, name)
	}
	return names, nil
}

func (repository *PostgresRepository) ActiveSerieHasCollectionAfter(context context.Context, t time.Time) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s c
			JOIN %s s ON s.%s = c.%s
			WHERE s.%s = $1 AND c.%s IS NOT NULL AND c.%s > $2
		)
	`,
		schema.Collection.Table, schema.Serie.Table,
		schema.Serie.ID, schema.Collection.SerieID,
		schema.Serie.Status, schema.Collection.PublishTime, schema.Collection.PublishTime,
	)

	var exists bool
	err := repository.db.QueryRow(context, query, StatusActive, t).Scan(&exists)
	return exists, dberr.Wrap(err, "active_serie_has_collection_after")
}

func (repository *PostgresRepository) ListActiveSerieIDs(context context.Context) ([]int64, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.Serie.ID, schema.Serie.Table, schema.Serie.Status,
	)

	rows, err := repository.db.Query(context, query, StatusActive)
	if err != nil {
		return nil, dberr.Wrap(err, "list_active_series")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dberr.Wrap(err, "scan_serie_id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func itos(i int) string {
	return strconv.Itoa(i)
}
