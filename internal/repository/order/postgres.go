package order

import (
	"context"
	"errors"
	"fmt"

	"pranzo-storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

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

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM orders ORDER BY order_number`)
	if err != nil {
		r.logger.Error("order repo: list", zap.Error(err))
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[domain.Order])
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.pool.QueryRow(ctx, `SELECT data FROM orders WHERE id = $1`, id).Scan(&o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Create numbers orders as max+1 under a table lock, matching the file driver
// where clearing all orders restarts numbering at 1.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE orders IN EXCLUSIVE MODE`); err != nil {
			return err
		}
		var next int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(order_number), 0) + 1 FROM orders`).Scan(&next); err != nil {
			return err
		}
		o.OrderNumber = next
		if o.OrderCode == "" {
			o.OrderCode = domain.FormatOrderCode(next, o.ID)
		}
		const q = `INSERT INTO orders (id, order_number, order_code, data, created_at) VALUES ($1, $2, $3, $4, $5)`
		_, err := tx.Exec(ctx, q, o.ID, o.OrderNumber, o.OrderCode, o, o.CreatedAt)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("order %s: %w", o.ID, domain.ErrAlreadyExists)
		}
		r.logger.Error("order repo: create", zap.String("id", o.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("order repo: created", zap.String("id", o.ID), zap.Int("order_number", o.OrderNumber))
	return &o, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.pool.QueryRow(ctx, `DELETE FROM orders WHERE id = $1 RETURNING data`, id).Scan(&o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error("order repo: delete", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) Clear(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders`)
	if err != nil {
		r.logger.Error("order repo: clear", zap.Error(err))
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
