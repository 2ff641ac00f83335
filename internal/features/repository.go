package features

import (
	"context"
	"errors"
	"time"

	"github.com/helix-rec/helix-backend/pkg/db/models"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// Repository wires together feature snapshot persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListTransactionsSince loads every transaction at or after the cutoff,
// oldest first.
func (r *Repository) ListTransactionsSince(ctx context.Context, since time.Time) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Where("purchased_at >= ?", since).
		Order("purchased_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceUserFeatures swaps the full user feature table for the given rows.
func (r *Repository) ReplaceUserFeatures(ctx context.Context, rows []models.UserFeature) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("1 = 1").Delete(&models.UserFeature{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, insertBatchSize).Error
}

// ReplaceItemFeatures swaps the full item feature table for the given rows.
func (r *Repository) ReplaceItemFeatures(ctx context.Context, rows []models.ItemFeature) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("1 = 1").Delete(&models.ItemFeature{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, insertBatchSize).Error
}

// GetUserFeature loads one user's feature row. Absence is legitimate and
// returns (nil, nil).
func (r *Repository) GetUserFeature(ctx context.Context, customerID string) (*models.UserFeature, error) {
	var row models.UserFeature
	err := r.db.WithContext(ctx).First(&row, "customer_id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListItemFeatures loads feature rows for the requested articles; articles
// with no history are simply omitted.
func (r *Repository) ListItemFeatures(ctx context.Context, articleIDs []string) ([]models.ItemFeature, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	var rows []models.ItemFeature
	err := r.db.WithContext(ctx).
		Where("article_id IN ?", articleIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListTopItems returns the k best-ranked items, best rank first.
func (r *Repository) ListTopItems(ctx context.Context, k int) ([]models.ItemFeature, error) {
	if k <= 0 {
		return nil, nil
	}
	var rows []models.ItemFeature
	err := r.db.WithContext(ctx).
		Order("popularity_rank ASC").
		Limit(k).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCustomerIDs returns the customers present in the current snapshot,
// ordered for stable batch runs. A non-positive limit returns all of them.
func (r *Repository) ListCustomerIDs(ctx context.Context, limit int) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.UserFeature{}).
		Order("customer_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ids []string
	if err := query.Pluck("customer_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountUserFeatures returns the number of persisted user rows.
func (r *Repository) CountUserFeatures(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserFeature{}).Count(&count).Error
	return count, err
}

// CountItemFeatures returns the number of persisted item rows.
func (r *Repository) CountItemFeatures(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ItemFeature{}).Count(&count).Error
	return count, err
}

// LatestComputedAt returns the newest snapshot timestamp, nil when the
// snapshot has never been built.
func (r *Repository) LatestComputedAt(ctx context.Context) (*time.Time, error) {
	var row models.ItemFeature
	err := r.db.WithContext(ctx).Order("computed_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.ComputedAt, nil
}
