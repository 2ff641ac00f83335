package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/helix-rec/helix-backend/internal/candidates"
	"github.com/helix-rec/helix-backend/internal/features"
	"github.com/helix-rec/helix-backend/internal/ranking"
	"github.com/helix-rec/helix-backend/internal/serving"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/helix-rec/helix-backend/pkg/metrics"
)

func main() {
	limit := flag.Int("limit", 0, "cap on customers pulled from the snapshot, 0 for all")
	ids := flag.String("ids", "", "comma-separated customer ids, overrides the snapshot listing")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "batch-infer"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "batch-infer",
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

	featureRepo := features.NewRepository(dbClient.DB())
	featureSvc, err := features.NewService(featureRepo, dbClient, cfg.Features, logg)
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
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "co-visitation build failed, serving popularity only")
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
		metrics.NewServingMetrics(nil),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create serving service", err)
		os.Exit(1)
	}

	customerIDs, err := resolveCustomers(context.Background(), featureRepo, *ids, *limit)
	if err != nil {
		logg.Error(context.Background(), "failed to resolve customer list", err)
		os.Exit(1)
	}
	if len(customerIDs) == 0 {
		logg.Warn(context.Background(), "no customers to score, exiting")
		return
	}

	ctx := logg.WithField(context.Background(), "customers", len(customerIDs))
	logg.Info(ctx, "starting batch inference")

	report, err := servingSvc.PredictBatch(ctx, customerIDs)
	if err != nil {
		logg.Error(ctx, "batch inference failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"run_id":      report.RunID.String(),
		"succeeded":   report.Succeeded,
		"failed":      report.Failed,
		"duration_ms": report.Duration.Milliseconds(),
	})
	logg.Info(ctx, "batch inference finished")

	if report.Failed > 0 && report.Succeeded == 0 {
		os.Exit(1)
	}
}

func resolveCustomers(ctx context.Context, repo *features.Repository, ids string, limit int) ([]string, error) {
	if strings.TrimSpace(ids) != "" {
		var out []string
		for _, id := range strings.Split(ids, ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	}
	return repo.ListCustomerIDs(ctx, limit)
}
