package main

import (
	"context"
	"flag"

	"pranzo-storefront/internal/config"
	"pranzo-storefront/internal/db"
	"pranzo-storefront/internal/logger"
	"pranzo-storefront/internal/migrate"

	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.Must(cfg.Env, cfg.LogLevel).Named("migrate")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			log.Fatal("roll back migrations", zap.Error(err))
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal("apply migrations", zap.Error(err))
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Fatal("read schema version", zap.Error(err))
	}
	log.Info("migrations done", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
