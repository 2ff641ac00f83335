package schedule

import (
	"context"
	"fmt"

	"github.com/helix-rec/helix-backend/internal/candidates"
	"github.com/helix-rec/helix-backend/internal/features"
	"github.com/helix-rec/helix-backend/pkg/logger"
)

type featureRefresher interface {
	Refresh(ctx context.Context) (*features.RefreshStats, error)
}

type matrixRebuilder interface {
	RebuildMatrix(ctx context.Context) (candidates.MatrixStats, error)
}

// FeatureRefreshJob recomputes the feature snapshot and then rebuilds the
// co-visitation matrix on top of it.
type FeatureRefreshJob struct {
	features featureRefresher
	matrix   matrixRebuilder
	logg     *logger.Logger
}

// NewFeatureRefreshJob constructs the refresh job.
func NewFeatureRefreshJob(featureSvc featureRefresher, matrix matrixRebuilder, logg *logger.Logger) (*FeatureRefreshJob, error) {
	if featureSvc == nil {
		return nil, fmt.Errorf("feature service required")
	}
	if matrix == nil {
		return nil, fmt.Errorf("matrix rebuilder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &FeatureRefreshJob{features: featureSvc, matrix: matrix, logg: logg}, nil
}

// Name implements Job.
func (j *FeatureRefreshJob) Name() string {
	return "feature_refresh"
}

// Run implements Job. A failed snapshot rebuild aborts the cycle before the
// matrix is touched, so readers keep a consistent pairing of snapshot and
// matrix.
func (j *FeatureRefreshJob) Run(ctx context.Context) error {
	stats, err := j.features.Refresh(ctx)
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"users": stats.Users,
		"items": stats.Items,
	}), "feature snapshot refreshed")

	if _, err := j.matrix.RebuildMatrix(ctx); err != nil {
		return err
	}
	return nil
}
