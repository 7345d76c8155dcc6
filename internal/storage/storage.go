// Package storage opens the product and order repositories for the configured driver.
package storage

import (
	"context"
	"fmt"

	"pranzo-storefront/internal/config"
	"pranzo-storefront/internal/db"
	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/filestore"
	"pranzo-storefront/internal/migrate"
	orderrepo "pranzo-storefront/internal/repository/order"
	productrepo "pranzo-storefront/internal/repository/product"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Backend is an opened storage driver.
type Backend struct {
	Driver   string
	Products productrepo.Repository
	Orders   orderrepo.Repository
	// Pool is nil for the file driver.
	Pool *pgxpool.Pool
}

// Close releases the connection pool, if any.
func (b *Backend) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}

// Open builds repositories for cfg.StorageDriver. The postgres driver applies
// pending migrations before returning.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.StorageDriver {
	case config.StorageFile:
		storeDoc, err := filestore.Open[domain.StoreSnapshot](cfg.StoreFile, logger)
		if err != nil {
			return nil, fmt.Errorf("open store file: %w", err)
		}
		ordersDoc, err := filestore.Open[domain.OrdersDocument](cfg.OrdersFile, logger)
		if err != nil {
			return nil, fmt.Errorf("open orders file: %w", err)
		}
		logger.Info("using file storage", zap.String("store", cfg.StoreFile), zap.String("orders", cfg.OrdersFile))
		return &Backend{
			Driver:   config.StorageFile,
			Products: productrepo.NewFile(storeDoc, logger),
			Orders:   orderrepo.NewFile(ordersDoc, logger),
		}, nil
	case config.StoragePostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString, logger)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("using postgres storage")
		return &Backend{
			Driver:   config.StoragePostgres,
			Products: productrepo.NewPostgres(pool, logger),
			Orders:   orderrepo.NewPostgres(pool, logger),
			Pool:     pool,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
