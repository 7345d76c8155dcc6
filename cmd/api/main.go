package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pranzo-storefront/internal/config"
	"pranzo-storefront/internal/httpserver"
	"pranzo-storefront/internal/logger"
	"pranzo-storefront/internal/scheduler"
	orderservice "pranzo-storefront/internal/service/order"
	productservice "pranzo-storefront/internal/service/product"
	"pranzo-storefront/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	log := logger.Must(cfg.Env, cfg.LogLevel).Named("api")
	defer func() { _ = log.Sync() }()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer backend.Close()

	productService := productservice.New(backend.Products)
	orderService := orderservice.New(backend.Orders)

	var ready httpserver.Pinger
	if backend.Pool != nil {
		ready = backend.Pool
	}
	srv := httpserver.New(cfg.HTTPAddr, log, ready, httpserver.Deps{
		Products: productService,
		Orders:   orderService,
	}, cfg.CORSOrigins)

	sched := scheduler.New(scheduler.SystemClock{}, log)
	sched.Add(scheduler.Task{
		Name:       "archive-expired",
		Interval:   cfg.SweepInterval,
		RunOnStart: true,
		Run: func(ctx context.Context, now time.Time) {
			ids, err := productService.ArchiveExpired(ctx, now)
			if err != nil {
				log.Warn("archive expired products", zap.Error(err))
			}
			if len(ids) > 0 {
				log.Info("archived expired products", zap.Strings("ids", ids))
			}
		},
	})
	sched.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	stop()
	sched.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	} else {
		log.Info("server stopped")
	}
}
