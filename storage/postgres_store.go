package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"hiko-crawler/models"
)

const hotDealColumns = `id, source, source_id, category, title, description, original_price, sale_price,
	discount_rate, seller, original_url, thumbnail_url, image_url, is_free_shipping, status, end_date,
	views, comment_count, like_count, author_name, shopping_comment, created_at, updated_at, deleted_at`

// PostgresStore persists hotdeals to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.Migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

// NewPostgresStoreFromDB wraps an already opened handle without migrating.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (ps *PostgresStore) Migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS hot_deals (
			id               UUID         PRIMARY KEY,
			source           VARCHAR(32)  NOT NULL,
			source_id        VARCHAR(64)  NOT NULL,
			category         VARCHAR(64)  NOT NULL DEFAULT '기타',
			title            TEXT         NOT NULL,
			description      TEXT         NOT NULL DEFAULT '',
			original_price   INTEGER      NOT NULL DEFAULT 0,
			sale_price       INTEGER      NOT NULL DEFAULT 0,
			discount_rate    SMALLINT     NOT NULL DEFAULT 0 CHECK (discount_rate BETWEEN 0 AND 100),
			seller           TEXT         NOT NULL DEFAULT '',
			original_url     TEXT         NOT NULL,
			thumbnail_url    TEXT         NOT NULL DEFAULT '',
			image_url        TEXT         NOT NULL DEFAULT '',
			is_free_shipping BOOLEAN      NOT NULL DEFAULT FALSE,
			status           VARCHAR(16)  NOT NULL DEFAULT 'active',
			end_date         TIMESTAMPTZ  NOT NULL,
			views            INTEGER      NOT NULL DEFAULT 0,
			comment_count    INTEGER      NOT NULL DEFAULT 0,
			like_count       INTEGER      NOT NULL DEFAULT 0,
			author_name      TEXT         NOT NULL DEFAULT '',
			shopping_comment TEXT         NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			deleted_at       TIMESTAMPTZ
		);

		CREATE UNIQUE INDEX IF NOT EXISTS uq_hot_deals_source_post
			ON hot_deals(source, source_id) WHERE deleted_at IS NULL;
		CREATE INDEX IF NOT EXISTS idx_hot_deals_status   ON hot_deals(status);
		CREATE INDEX IF NOT EXISTS idx_hot_deals_end_date ON hot_deals(end_date);
		CREATE INDEX IF NOT EXISTS idx_hot_deals_created  ON hot_deals(created_at DESC);
	`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotDeal(s rowScanner) (*models.HotDeal, error) {
	d := &models.HotDeal{}
	var deletedAt sql.NullTime
	if err := s.Scan(
		&d.ID, &d.Source, &d.SourceID, &d.Category, &d.Title, &d.Description,
		&d.OriginalPrice, &d.SalePrice, &d.DiscountRate, &d.Seller, &d.OriginalURL,
		&d.ThumbnailURL, &d.ImageURL, &d.IsFreeShipping, &d.Status, &d.EndDate,
		&d.Views, &d.CommentCount, &d.LikeCount, &d.AuthorName, &d.ShoppingComment,
		&d.CreatedAt, &d.UpdatedAt, &deletedAt,
	); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		d.DeletedAt = &t
	}
	return d, nil
}

func (ps *PostgresStore) FindBySourceAndPostID(ctx context.Context, source models.Source, postID string) (*models.HotDeal, error) {
	row := ps.db.QueryRowContext(ctx, `
		SELECT `+hotDealColumns+`
		FROM hot_deals
		WHERE source = $1 AND source_id = $2 AND deleted_at IS NULL
		LIMIT 1
	`, source, postID)

	d, err := scanHotDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find %s/%s: %w", source, postID, err)
	}
	return d, nil
}

func (ps *PostgresStore) Create(ctx context.Context, deal *models.HotDeal) (*models.HotDeal, error) {
	row := deal.Clone()
	row.ID = uuid.NewString()

	res, err := ps.db.ExecContext(ctx, `
		INSERT INTO hot_deals (
			id, source, source_id, category, title, description, original_price, sale_price,
			discount_rate, seller, original_url, thumbnail_url, image_url, is_free_shipping, status,
			end_date, views, comment_count, like_count, author_name, shopping_comment, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (source, source_id) WHERE deleted_at IS NULL DO NOTHING
	`,
		row.ID, row.Source, row.SourceID, row.Category, row.Title, row.Description,
		row.OriginalPrice, row.SalePrice, row.DiscountRate, row.Seller, row.OriginalURL,
		row.ThumbnailURL, row.ImageURL, row.IsFreeShipping, row.Status, row.EndDate,
		row.Views, row.CommentCount, row.LikeCount, row.AuthorName, row.ShoppingComment,
		row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create %s/%s: %w", row.Source, row.SourceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrDuplicate
	}
	return row, nil
}

// Update overwrites the mutable columns of a live row. The status guard in
// the WHERE clause keeps the lifecycle monotonic without a transaction.
func (ps *PostgresStore) Update(ctx context.Context, id string, deal *models.HotDeal) (*models.HotDeal, error) {
	res, err := ps.db.ExecContext(ctx, `
		UPDATE hot_deals SET
			category = $2, title = $3, description = $4, original_price = $5, sale_price = $6,
			discount_rate = $7, seller = $8, original_url = $9, thumbnail_url = $10, image_url = $11,
			is_free_shipping = $12, status = $13, end_date = $14, views = $15, comment_count = $16,
			like_count = $17, author_name = $18, shopping_comment = $19, updated_at = $20
		WHERE id = $1 AND deleted_at IS NULL
			AND (CASE status WHEN 'active' THEN 0 WHEN 'expired' THEN 1 ELSE 2 END) <= $21
	`,
		id, deal.Category, deal.Title, deal.Description, deal.OriginalPrice, deal.SalePrice,
		deal.DiscountRate, deal.Seller, deal.OriginalURL, deal.ThumbnailURL, deal.ImageURL,
		deal.IsFreeShipping, deal.Status, deal.EndDate, deal.Views, deal.CommentCount,
		deal.LikeCount, deal.AuthorName, deal.ShoppingComment, deal.UpdatedAt, statusRank(deal.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: update %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ps.missOrConflict(ctx, id)
	}

	row := deal.Clone()
	row.ID = id
	return row, nil
}

func (ps *PostgresStore) missOrConflict(ctx context.Context, id string) error {
	var status string
	err := ps.db.QueryRowContext(ctx,
		`SELECT status FROM hot_deals WHERE id = $1 AND deleted_at IS NULL`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("postgres: lookup %s: %w", id, err)
	}
	return ErrInvalidTransition
}

func statusRank(s models.DealStatus) int {
	switch s {
	case models.StatusActive:
		return 0
	case models.StatusExpired:
		return 1
	default:
		return 2
	}
}

func (ps *PostgresStore) ExpireBefore(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := ps.db.QueryContext(ctx, `
		UPDATE hot_deals
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND deleted_at IS NULL AND end_date < $1
		RETURNING id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("postgres: expire: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan expired id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (ps *PostgresStore) SoftDelete(ctx context.Context, id string, now time.Time) (*models.HotDeal, error) {
	row := ps.db.QueryRowContext(ctx, `
		UPDATE hot_deals
		SET status = 'deleted', deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+hotDealColumns, id, now)

	d, err := scanHotDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: soft delete %s: %w", id, err)
	}
	return d, nil
}

// List retrieves hotdeals newest first. Used by the admin API and the
// insight report.
func (ps *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.HotDeal, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != models.StatusDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conds = append(conds, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	args = append(args, effectiveLimit(filter.Limit))

	query := `SELECT ` + hotDealColumns + ` FROM hot_deals`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, len(args))

	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	var deals []*models.HotDeal
	for rows.Next() {
		d, err := scanHotDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
