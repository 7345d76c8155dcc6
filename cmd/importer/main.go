package main

import (
	"context"
	"flag"
	"os"
	"time"

	"pranzo-storefront/internal/config"
	"pranzo-storefront/internal/importer"
	"pranzo-storefront/internal/logger"
	"pranzo-storefront/internal/storage"

	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to the catalog CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	log := logger.Must(cfg.Env, cfg.LogLevel).Named("importer")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer backend.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, backend.Products, log)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}

	log.Info("import finished",
		zap.Int("products", count),
		zap.String("driver", backend.Driver),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
	)
}
