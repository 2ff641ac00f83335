package db

import (
	"context"

	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"github.com/helix-rec/helix-backend/pkg/logger"
)

// MaybeAutoMigrate creates/updates the schema when the dev flag allows it.
func MaybeAutoMigrate(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return err
	}
	if logg != nil {
		logg.Info(ctx, "auto-migration complete")
	}
	return nil
}
