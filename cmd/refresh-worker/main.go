package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/helix-rec/helix-backend/internal/candidates"
	"github.com/helix-rec/helix-backend/internal/features"
	"github.com/helix-rec/helix-backend/internal/schedule"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/helix-rec/helix-backend/pkg/metrics"
	"github.com/helix-rec/helix-backend/pkg/redis"
)

const lockKeyFormat = "helix:refresh-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "refresh-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "refresh-worker"

	logg = logger.New(logger.Options{
		ServiceName: "refresh-worker",
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

	refreshJob, err := schedule.NewFeatureRefreshJob(featureSvc, candidateSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create refresh job", err)
		os.Exit(1)
	}

	lock, err := schedule.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create refresh lock", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	service, err := schedule.NewService(schedule.ServiceParams{
		Logger:   logg,
		Registry: schedule.NewRegistry(refreshJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Features.RefreshInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create schedule service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting refresh worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "refresh worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "refresh worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
