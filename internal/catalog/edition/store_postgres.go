package edition

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

func editionColumns() string {
	return strings.Join(schema.Edition.Columns(), ", ")
}

func scanEdition(row interface{ Scan(...any) error }) (*Edition, error) {
	e := &Edition{}
	err := row.Scan(
		&e.ID, &e.UUID, &e.Name, &e.Description, &e.Artist, &e.AvatarWearableID,
		&e.AvatarWearableSKU, &e.Celebrity, &e.DesignSlot, &e.Publisher, &e.Rarity,
		&e.Trademark, &e.Type, &e.Price, &e.ReservePercentage, &e.Status,
		&e.PublishTime, &e.FlowID, &e.ExternalID, &e.CollectionID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (repository *PostgresRepository) ListEditions(context context.Context, f Filter, limit, offset int, order, orderBy string) ([]*Edition, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, status := range f.Statuses {
			args = append(args, status)
			placeholders[i] = "$" + itos(len(args))
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", schema.Edition.Status, strings.Join(placeholders, ", ")))
	}
	if f.CollectionID != 0 {
		args = append(args, f.CollectionID)
		where = append(where, fmt.Sprintf("%s = $%s", schema.Edition.CollectionID, itos(len(args))))
	}
	if f.AvatarWearableID != 0 {
		args = append(args, f.AvatarWearableID)
		where = append(where, fmt.Sprintf("%s = $%s", schema.Edition.AvatarWearableID, itos(len(args))))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		placeholder := "$" + itos(len(args))
		where = append(where, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s)",
			schema.Edition.Name, placeholder, schema.Edition.AvatarWearableSKU, placeholder))
	}

	condition := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, schema.Edition.Table, condition)
	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_editions")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s %s`,
		editionColumns(), schema.Edition.Table, condition, orderBy, order,
	)
	// An unbounded list is used by internal cascades.
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%s OFFSET $%s", itos(len(args)+1), itos(len(args)+2))
		args = append(args, limit, offset)
	}

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_editions")
	}
	defer rows.Close()

	var editions []*Edition
	for rows.Next() {
		e, err := scanEdition(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_edition")
		}
		editions = append(editions, e)
	}

	return editions, total, nil
}

func (repository *PostgresRepository) GetEdition(context context.Context, id int64) (*Edition, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		editionColumns(), schema.Edition.Table, schema.Edition.ID,
	)

	e, err := scanEdition(repository.db.QueryRow(context, query, id))
	return e, dberr.Wrap(err, "get_edition")
}

func (repository *PostgresRepository) CreateEdition(context context.Context, e *Edition) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Edition.Table, schema.Edition.UUID, schema.Edition.Name,
		schema.Edition.Description, schema.Edition.Artist, schema.Edition.AvatarWearableID,
		schema.Edition.AvatarWearableSKU, schema.Edition.Celebrity, schema.Edition.DesignSlot,
		schema.Edition.Publisher, schema.Edition.Rarity, schema.Edition.Trademark,
		schema.Edition.Type, schema.Edition.Price, schema.Edition.ReservePercentage,
		schema.Edition.Status, schema.Edition.PublishTime, schema.Edition.CollectionID,
		schema.Edition.CreatedAt, schema.Edition.UpdatedAt,
		schema.Edition.ID, schema.Edition.CreatedAt, schema.Edition.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		e.UUID, e.Name, e.Description, e.Artist, e.AvatarWearableID,
		e.AvatarWearableSKU, e.Celebrity, e.DesignSlot, e.Publisher, e.Rarity,
		e.Trademark, e.Type, e.Price, e.ReservePercentage, e.Status,
		e.PublishTime, e.CollectionID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return dberr.Wrap(err, "create_edition")
}

func (repository *PostgresRepository) UpdateEdition(context context.Context, id int64, p Patch) (*Edition, error) {
	sets := []string{}
	args := []any{id}

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%s", column, itos(len(args))))
	}

	if p.Name != nil {
		set(schema.Edition.Name, *p.Name)
	}
	if p.Description != nil {
		set(schema.Edition.Description, *p.Description)
	}
	if p.Artist != nil {
		set(schema.Edition.Artist, *p.Artist)
	}
	if p.AvatarWearableID != nil {
		set(schema.Edition.AvatarWearableID, *p.AvatarWearableID)
	}
	if p.AvatarWearableSKU != nil {
		set(schema.Edition.AvatarWearableSKU, *p.AvatarWearableSKU)
	}
	if p.Celebrity != nil {
		set(schema.Edition.Celebrity, *p.Celebrity)
	}
	if p.DesignSlot != nil {
		set(schema.Edition.DesignSlot, *p.DesignSlot)
	}
	if p.Publisher != nil {
		set(schema.Edition.Publisher, *p.Publisher)
	}
	if p.Rarity != nil {
		set(schema.Edition.Rarity, *p.Rarity)
	}
	if p.Trademark != nil {
		set(schema.Edition.Trademark, *p.Trademark)
	}
	if p.Type != nil {
		set(schema.Edition.Type, *p.Type)
	}
	if p.Price != nil {
		set(schema.Edition.Price, *p.Price)
	}
	if p.ReservePercentage != nil {
		set(schema.Edition.ReservePercentage, *p.ReservePercentage)
	}
	if p.Status != nil {
		set(schema.Edition.Status, *p.Status)
	}
	if p.PublishTime != nil {
		set(schema.Edition.PublishTime, *p.PublishTime)
	}
	if p.FlowID != nil {
		set(schema.Edition.FlowID, *p.FlowID)
	}
	if p.ExternalID != nil {
		set(schema.Edition.ExternalID, *p.ExternalID)
	}
	if p.CollectionID != nil {
		set(schema.Edition.CollectionID, *p.CollectionID)
	}

	if len(sets) == 0 {
		return repository.GetEdition(context, id)
	}
	sets = append(sets, fmt.Sprintf("%s = NOW()", schema.Edition.UpdatedAt))

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 RETURNING %s`,
		schema.Edition.Table, strings.Join(sets, ", "), schema.Edition.ID, editionColumns(),
	)

	e, err := scanEdition(repository.db.QueryRow(context, query, args...))
	return e, dberr.Wrap(err, "update_edition")
}

func (repository *PostgresRepository) DeleteEdition(context context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Edition.Table, schema.Edition.ID)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_edition")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) HasCreating(context context.Context) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		schema.Edition.Table, schema.Edition.Status,
	)

	var exists bool
	err := repository.db.QueryRow(context, query, StatusCreating).Scan(&exists)
	return exists, dberr.Wrap(err, "has_creating_edition")
}

func (repository *PostgresRepository) DropTitlesPublishedBefore(context context.Context, editionID int64, t time.Time) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT d.%s FROM %s d
		JOIN %s de ON de.%s = d.%s
		WHERE de.%s = $1 AND d.%s IS NOT NULL AND d.%s < $2
		ORDER BY d.%s ASC
	`,
		schema.Drop.Title, schema.Drop.Table,
		schema.DropEdition.Table, schema.DropEdition.DropID, schema.Drop.ID,
		schema.DropEdition.EditionID, schema.Drop.PublishTime, schema.Drop.PublishTime,
		schema.Drop.PublishTime,
	)

	rows, err := repository.db.Query(context, query, editionID, t)
	if err != nil {
		return nil, dberr.Wrap(err, "drop_titles_published_before")
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, dberr.Wrap(err, "scan_drop_title")
		}
		titles = append(titles, title)
	}
	return titles, nil
}

func (repository *PostgresRepository) ListEditableBySerie(context context.Context, serieID int64) ([]*Edition, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s e
		JOIN %s c ON c.%s = e.%s
		WHERE c.%s = $1 AND e.%s IN ($2, $3)
	`,
		prefixedEditionColumns("e"), schema.Edition.Table,
		schema.Collection.Table, schema.Collection.ID, schema.Edition.CollectionID,
		schema.Collection.SerieID, schema.Edition.Status,
	)

	return repository.queryEditions(context, query, "list_editions_by_serie", serieID, StatusDraft, StatusError)
}

func (repository *PostgresRepository) ListEditableByCollection(context context.Context, collectionID int64) ([]*Edition, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IN ($2, $3)`,
		editionColumns(), schema.Edition.Table, schema.Edition.CollectionID, schema.Edition.Status,
	)

	return repository.queryEditions(context, query, "list_editions_by_collection", collectionID, StatusDraft, StatusError)
}

func (repository *PostgresRepository) queryEditions(context context.Context, query, action string, args ...any) ([]*Edition, error) {
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	var editions []*Edition
	for rows.Next() {
		e, err := scanEdition(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_edition")
		}
		editions = append(editions, e)
	}
	return editions, nil
}

func (repository *PostgresRepository) UpdateWearableSKU(context context.Context, id int64, sku string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.Edition.Table, schema.Edition.AvatarWearableSKU,
		schema.Edition.UpdatedAt, schema.Edition.ID,
	)

	cmd, err := repository.db.Exec(context, query, id, sku)
	if err != nil {
		return dberr.Wrap(err, "update_wearable_sku")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) GetAssetsExtras(context context.Context, avatarWearableID int64) (*AssetsExtras, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.AssetsExtra.AvatarWearableID, schema.AssetsExtra.UUID,
		schema.AssetsExtra.Images, schema.AssetsExtra.Videos,
		schema.AssetsExtra.Table, schema.AssetsExtra.AvatarWearableID,
	)

	extras := &AssetsExtras{}
	err := repository.db.QueryRow(context, query, avatarWearableID).Scan(
		&extras.AvatarWearableID, &extras.UUID, &extras.Images, &extras.Videos,
	)
	return extras, dberr.Wrap(err, "get_assets_extras")
}

func (repository *PostgresRepository) UpsertAssetsExtras(context context.Context, extras *AssetsExtras) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (%s) DO UPDATE SET %s = $3, %s = $4, %s = NOW()
	`,
		schema.AssetsExtra.Table, schema.AssetsExtra.AvatarWearableID,
		schema.AssetsExtra.UUID, schema.AssetsExtra.Images, schema.AssetsExtra.Videos,
		schema.AssetsExtra.CreatedAt, schema.AssetsExtra.UpdatedAt,
		schema.AssetsExtra.AvatarWearableID,
		schema.AssetsExtra.Images, schema.AssetsExtra.Videos, schema.AssetsExtra.UpdatedAt,
	)

	_, err := repository.db.Exec(context, query,
		extras.AvatarWearableID, extras.UUID, extras.Images, extras.Videos,
	)
	return dberr.Wrap(err, "upsert_assets_extras")
}

func (repository *PostgresRepository) ListErrors(context context.Context, editionID int64, limit, offset int) ([]*EditionError, int, error) {
	where := "TRUE"
	args := []any{}
	if editionID != 0 {
		args = append(args, editionID)
		where = fmt.Sprintf("%s = $1", schema.EditionError.EditionID)
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, schema.EditionError.Table, where)
	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_edition_errors")
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s
		ORDER BY %s DESC LIMIT $%s OFFSET $%s
	`,
		schema.EditionError.ID, schema.EditionError.EditionID, schema.EditionError.Type,
		schema.EditionError.Error, schema.EditionError.SuggestedSolution, schema.EditionError.CreatedAt,
		schema.EditionError.Table, where,
		schema.EditionError.CreatedAt, itos(len(args)+1), itos(len(args)+2),
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_edition_errors")
	}
	defer rows.Close()

	var editionErrors []*EditionError
	for rows.Next() {
		editionError := &EditionError{}
		if err := rows.Scan(
			&editionError.ID, &editionError.EditionID, &editionError.Type,
			&editionError.Error, &editionError.SuggestedSolution, &editionError.CreatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_edition_error")
		}
		editionErrors = append(editionErrors, editionError)
	}

	return editionErrors, total, nil
}

func (repository *PostgresRepository) CreateError(context context.Context, editionError *EditionError) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING %s, %s
	`,
		schema.EditionError.Table, schema.EditionError.EditionID, schema.EditionError.Type,
		schema.EditionError.Error, schema.EditionError.SuggestedSolution,
		schema.EditionError.CreatedAt, schema.EditionError.UpdatedAt,
		schema.EditionError.ID, schema.EditionError.CreatedAt,
	)

	err := repository.db.QueryRow(context, query,
		editionError.EditionID, editionError.Type, editionError.Error, editionError.SuggestedSolution,
	).Scan(&editionError.ID, &editionError.CreatedAt)
	return dberr.Wrap(err, "create_edition_error")
}

func prefixedEditionColumns(alias string) string {
	columns := schema.Edition.Columns()
	prefixed := make([]string, len(columns))
	for i, column := range columns {
		prefixed[i] = alias + "." + column
	}
	return strings.Join(prefixed, ", ")
}

func itos(i int) string {
	return strconv.Itoa(i)
}
