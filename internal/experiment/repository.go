package experiment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists the append-only experiment log and run summaries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateOutcome appends one outcome row.
func (r *Repository) CreateOutcome(ctx context.Context, row *models.ExperimentOutcome) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// CreateSummary persists the derived per-run summary.
func (r *Repository) CreateSummary(ctx context.Context, row *models.ExperimentSummary) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// GetSummary loads the summary for a run, nil when the run is unknown.
func (r *Repository) GetSummary(ctx context.Context, runID uuid.UUID) (*models.ExperimentSummary, error) {
	var row models.ExperimentSummary
	err := r.db.WithContext(ctx).First(&row, "run_id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CountOutcomes returns the number of recorded outcomes for a run.
func (r *Repository) CountOutcomes(ctx context.Context, runID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ExperimentOutcome{}).
		Where("run_id = ?", runID).
		Count(&count).Error
	return count, err
}
