package nft

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

func (repository *PostgresRepository) ListNFTs(context context.Context, f Filter, limit, offset int) ([]*NFT, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, status := range f.Statuses {
			args = append(args, status)
			placeholders[i] = "$" + itos(len(args))
		}
		where = append(where, fmt.Sprintf("n.%s IN (%s)", schema.NFT.Status, strings.Join(placeholders, ", ")))
	}
	if f.Reserved != nil {
		args = append(args, *f.Reserved)
		where = append(where, fmt.Sprintf("n.%s = $%s", schema.NFT.Reserved, itos(len(args))))
	}
	if f.Rarity != "" {
		args = append(args, f.Rarity)
		where = append(where, fmt.Sprintf("e.%s = $%s", schema.Edition.Rarity, itos(len(args))))
	}
	if f.CollectionID != 0 {
		args = append(args, f.CollectionID)
		where = append(where, fmt.Sprintf("c.%s = $%s", schema.Collection.ID, itos(len(args))))
	}
	if f.SerieID != 0 {
		args = append(args, f.SerieID)
		where = append(where, fmt.Sprintf("s.%s = $%s", schema.Serie.ID, itos(len(args))))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		placeholder := "$" + itos(len(args))
		where = append(where, fmt.Sprintf(
			"(n.%s::text ILIKE %s OR e.%s ILIKE %s OR c.%s ILIKE %s OR c.%s ILIKE %s OR s.%s ILIKE %s OR s.%s ILIKE %s)",
			schema.NFT.FlowID, placeholder,
			schema.Edition.Name, placeholder,
			schema.Collection.Name, placeholder, schema.Collection.ShortWord, placeholder,
			schema.Serie.Name, placeholder, schema.Serie.ShortWord, placeholder,
		))
	}

	condition := strings.Join(where, " AND ")
	joins := fmt.Sprintf(`
		FROM %s n
		JOIN %s e ON e.%s = n.%s
		JOIN %s c ON c.%s = e.%s
		JOIN %s s ON s.%s = c.%s
	`,
		schema.NFT.Table,
		schema.Edition.Table, schema.Edition.ID, schema.NFT.EditionID,
		schema.Collection.Table, schema.Collection.ID, schema.Edition.CollectionID,
		schema.Serie.Table, schema.Serie.ID, schema.Collection.SerieID,
	)

	countQuery := fmt.Sprintf(`SELECT count(*) %s WHERE %s`, joins, condition)
	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_nfts")
	}

	query := fmt.Sprintf(`
		SELECT n.%s, n.%s, n.%s, n.%s, n.%s, n.%s, n.%s, n.%s, e.%s, e.%s
		%s WHERE %s
		ORDER BY n.%s DESC LIMIT $%s OFFSET $%s
	`,
		schema.NFT.ID, schema.NFT.UUID, schema.NFT.Reserved, schema.NFT.Status,
		schema.NFT.FlowID, schema.NFT.EditionID, schema.NFT.CreatedAt, schema.NFT.UpdatedAt,
		schema.Edition.Name, schema.Edition.AvatarWearableSKU,
		joins, condition,
		schema.NFT.CreatedAt, itos(len(args)+1), itos(len(args)+2),
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_nfts")
	}
	defer rows.Close()

	var nfts []*NFT
	for rows.Next() {
		n := &NFT{}
		if err := rows.Scan(
			&n.ID, &n.UUID, &n.Reserved, &n.Status, &n.FlowID, &n.EditionID,
			&n.CreatedAt, &n.UpdatedAt, &n.EditionName, &n.AvatarWearableSKU,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_nft")
		}
		nfts = append(nfts, n)
	}

	return nfts, total, nil
}

func (repository *PostgresRepository) CreateNFT(context context.Context, n *NFT) (bool, error) {
	// ON CONFLICT keys on the flow id so a retried mint is idempotent.
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (%s) DO NOTHING
	`,
		schema.NFT.Table, schema.NFT.UUID, schema.NFT.Reserved, schema.NFT.Status,
		schema.NFT.FlowID, schema.NFT.EditionID,
		schema.NFT.CreatedAt, schema.NFT.UpdatedAt,
		schema.NFT.FlowID,
	)

	cmd, err := repository.db.Exec(context, query, n.UUID, n.Reserved, n.Status, n.FlowID, n.EditionID)
	if err != nil {
		return false, dberr.Wrap(err, "create_nft")
	}
	return cmd.RowsAffected() > 0, nil
}

func itos(i int) string {
	return strconv.Itoa(i)
}
