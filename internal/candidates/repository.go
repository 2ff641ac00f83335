package candidates

import (
	"context"

	"github.com/helix-rec/helix-backend/pkg/db/models"
	"gorm.io/gorm"
)

// PurchaseTuple is one distinct (customer, article) purchase pair.
type PurchaseTuple struct {
	CustomerID string
	ArticleID  string
}

// Repository reads purchase history for candidate generation.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListPurchaseTuples loads every distinct (customer, article) pair in the log.
func (r *Repository) ListPurchaseTuples(ctx context.Context) ([]PurchaseTuple, error) {
	var tuples []PurchaseTuple
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Distinct("customer_id", "article_id").
		Scan(&tuples).Error
	if err != nil {
		return nil, err
	}
	return tuples, nil
}

// ListRecentArticles returns the customer's n most recently purchased
// distinct articles, newest first.
func (r *Repository) ListRecentArticles(ctx context.Context, customerID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	var articles []string
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("article_id").
		Where("customer_id = ?", customerID).
		Group("article_id").
		Order("MAX(purchased_at) DESC").
		Limit(n).
		Pluck("article_id", &articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// ListPurchasedArticles returns every distinct article the customer has
// purchased.
func (r *Repository) ListPurchasedArticles(ctx context.Context, customerID string) ([]string, error) {
	var articles []string
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Distinct("article_id").
		Where("customer_id = ?", customerID).
		Pluck("article_id", &articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}
