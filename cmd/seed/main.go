package main

import (
	"context"
	"time"

	"pranzo-storefront/internal/config"
	"pranzo-storefront/internal/logger"
	"pranzo-storefront/internal/seed"
	"pranzo-storefront/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	log := logger.Must(cfg.Env, cfg.LogLevel).Named("seed")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer backend.Close()

	if err := seed.Apply(ctx, backend.Products, time.Now()); err != nil {
		log.Fatal("seed apply", zap.Error(err))
	}

	log.Info("seed applied", zap.String("driver", backend.Driver))
}
