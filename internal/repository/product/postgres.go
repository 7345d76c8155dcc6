package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pranzo-storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// postgresRepo stores one row per product so every write touches a single record.
type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	const q = `SELECT data FROM products ORDER BY position`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	result, err := pgx.CollectRows(rows, pgx.RowTo[domain.Product])
	if err != nil {
		r.logger.Error("product repo: list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `SELECT data FROM products WHERE id = $1`
	var p domain.Product
	if err := r.pool.QueryRow(ctx, q, id).Scan(&p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `INSERT INTO products (id, data, is_archived) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, q, p.ID, p, p.IsArchived); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("product %s: %w", p.ID, domain.ErrAlreadyExists)
		}
		r.logger.Error("product repo: create", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("product repo: created", zap.String("id", p.ID))
	return &p, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET data = CASE WHEN $2::jsonb ? 'createdAt' THEN $2::jsonb
                ELSE $2::jsonb || jsonb_build_object('createdAt', data->'createdAt') END,
    is_archived = $3,
    updated_at = now()
WHERE id = $1
RETURNING data
`
	var out domain.Product
	if err := r.pool.QueryRow(ctx, q, p.ID, p, p.IsArchived).Scan(&out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
		}
		r.logger.Error("product repo: update", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("product repo: updated", zap.String("id", p.ID))
	return &out, nil
}

// ArchiveExpired flips the flag in one statement, so the row lock orders it
// against concurrent updates of the same product.
func (r *postgresRepo) ArchiveExpired(ctx context.Context, now time.Time) ([]string, error) {
	const q = `
UPDATE products
SET is_archived = true,
    data = data || '{"isArchived": true}'::jsonb,
    updated_at = now()
WHERE NOT is_archived
  AND (data->>'expirationDate')::timestamptz <= $1
RETURNING id
`
	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		r.logger.Error("product repo: archive expired", zap.Error(err))
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		r.logger.Error("product repo: archive expired rows", zap.Error(err))
		return nil, err
	}
	if len(ids) > 0 {
		r.logger.Info("product repo: archived expired", zap.Strings("ids", ids))
	}
	return ids, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, data, is_archived)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
    data = CASE WHEN EXCLUDED.data ? 'createdAt' THEN EXCLUDED.data
                ELSE EXCLUDED.data || jsonb_build_object('createdAt', products.data->'createdAt') END,
    is_archived = EXCLUDED.is_archived,
    updated_at = now()
RETURNING data
`
	var out domain.Product
	if err := r.pool.QueryRow(ctx, q, p.ID, p, p.IsArchived).Scan(&out); err != nil {
		r.logger.Error("product repo: upsert", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) (*domain.Product, error) {
	const q = `DELETE FROM products WHERE id = $1 RETURNING data`
	var out domain.Product
	if err := r.pool.QueryRow(ctx, q, id).Scan(&out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error("product repo: delete", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	r.logger.Info("product repo: deleted", zap.String("id", id))
	return &out, nil
}

func (r *postgresRepo) ReplaceAll(ctx context.Context, products []domain.Product) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, p := range products {
			batch.Queue(`INSERT INTO products (id, data, is_archived) VALUES ($1, $2, $3)`, p.ID, p, p.IsArchived)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		r.logger.Error("product repo: replace all", zap.Error(err))
		return err
	}
	r.logger.Info("product repo: replaced collection", zap.Int("count", len(products)))
	return nil
}

func (r *postgresRepo) Branches(ctx context.Context) ([]domain.Branch, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM branches ORDER BY position`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[domain.Branch])
}

func (r *postgresRepo) ReplaceBranches(ctx context.Context, branches []domain.Branch) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM branches`); err != nil {
			return err
		}
		for _, b := range branches {
			if _, err := tx.Exec(ctx, `INSERT INTO branches (id, data) VALUES ($1, $2)`, b.ID, b); err != nil {
				return fmt.Errorf("insert branch %s: %w", b.ID, err)
			}
		}
		return nil
	})
}
