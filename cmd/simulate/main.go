package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/helix-rec/helix-backend/internal/candidates"
	"github.com/helix-rec/helix-backend/internal/experiment"
	"github.com/helix-rec/helix-backend/internal/features"
	"github.com/helix-rec/helix-backend/internal/persona"
	"github.com/helix-rec/helix-backend/internal/ranking"
	"github.com/helix-rec/helix-backend/internal/serving"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/helix-rec/helix-backend/pkg/metrics"
)

func main() {
	users := flag.Int("users", 0, "virtual user count, overrides HELIX_EXPERIMENT_USERS")
	seed := flag.Int64("seed", 0, "simulation seed, overrides HELIX_EXPERIMENT_SEED")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "simulate"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if *users > 0 {
		cfg.Experiment.Users = *users
	}
	if *seed != 0 {
		cfg.Experiment.Seed = *seed
	}

	logg = logger.New(logger.Options{
		ServiceName: "simulate",
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

	personas, err := persona.NewModel(persona.NewOllamaClient(cfg.Ollama), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create persona model", err)
		os.Exit(1)
	}

	experimentSvc, err := experiment.NewService(
		servingSvc,
		candidateSvc,
		featureSvc,
		personas,
		experiment.NewRepository(dbClient.DB()),
		cfg.Experiment,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create experiment service", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"users": cfg.Experiment.Users,
		"seed":  cfg.Experiment.Seed,
	})
	logg.Info(ctx, "starting simulation")

	result, err := experimentSvc.Run(ctx)
	if err != nil {
		logg.Error(ctx, "simulation failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"run_id":        result.RunID.String(),
		"control_users": result.Control.Users,
		"control_ctr":   result.Control.CTR,
		"test_users":    result.Test.Users,
		"test_ctr":      result.Test.CTR,
		"skipped":       result.Skipped,
		"chi_square":    result.ChiSquare,
		"chi_p_value":   result.ChiPValue,
		"t_stat":        result.TStat,
		"t_p_value":     result.TPValue,
		"sat_t_stat":    result.SatTStat,
		"sat_t_p_value": result.SatTPValue,
		"significant":   result.Significant,
		"duration_ms":   result.Duration.Milliseconds(),
	})
	logg.Info(ctx, "simulation finished")
}
