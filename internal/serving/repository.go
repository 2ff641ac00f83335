package serving

import (
	"context"

	"github.com/google/uuid"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists batch inference outputs.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateResult appends one success row for the run.
func (r *Repository) CreateResult(ctx context.Context, row *models.BatchResult) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// CreateFailure appends one failure-ledger row for the run.
func (r *Repository) CreateFailure(ctx context.Context, row *models.BatchFailure) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListFailedCustomerIDs returns the customers a run failed on, so a caller
// can re-drive only that subset.
func (r *Repository) ListFailedCustomerIDs(ctx context.Context, runID uuid.UUID) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.BatchFailure{}).
		Where("run_id = ?", runID).
		Order("customer_id ASC").
		Pluck("customer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountResults returns success and failure row counts for the run.
func (r *Repository) CountResults(ctx context.Context, runID uuid.UUID) (succeeded, failed int64, err error) {
	err = r.db.WithContext(ctx).
		Model(&models.BatchResult{}).
		Where("run_id = ?", runID).
		Count(&succeeded).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.BatchFailure{}).
		Where("run_id = ?", runID).
		Count(&failed).Error
	if err != nil {
		return 0, 0, err
	}
	return succeeded, failed, nil
}
