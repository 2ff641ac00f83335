package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/helix-rec/helix-backend/api/routes"
	"github.com/helix-rec/helix-backend/internal/candidates"
	"github.com/helix-rec/helix-backend/internal/features"
	"github.com/helix-rec/helix-backend/internal/ranking"
	"github.com/helix-rec/helix-backend/internal/serving"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/helix-rec/helix-backend/pkg/metrics"
	"github.com/helix-rec/helix-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := db.MaybeAutoMigrate(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	servingMetrics := metrics.NewServingMetrics(registry)

	featureSvc, err := features.NewService(features.NewRepository(dbClient.DB()), dbClient, cfg.Features, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create feature service", err)
		os.Exit(1)
	}

	candidateSvc, err := candidates.NewService(candidates.NewRepository(dbClient.DB()), featureSvc, cfg.Candidates, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create candidate service", err)
		os.Exit(1)
	}
	if _, err := candidateSvc.RebuildMatrix(context.Background()); err != nil {
		// Serving degrades to popularity-only until the next rebuild.
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "initial co-visitation build failed")
	}

	scorer, err := ranking.LoadLogisticModel(cfg.Ranker.ModelPath)
	if err != nil {
		logg.Error(context.Background(), "failed to load ranker artifact", err)
		os.Exit(1)
	}

	servingSvc, err := serving.NewService(
		featureSvc,
		candidateSvc,
		scorer,
		serving.NewRepository(dbClient.DB()),
		cfg.Serving,
		logg,
		servingMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create serving service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, featureSvc, servingSvc),
	}

	notifyCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-notifyCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}
}
