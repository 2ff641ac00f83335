package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemFeature is one row of the per-article feature snapshot.
// PopularityRank is a dense rank over the refresh window: sales count
// descending, article id ascending on ties.
type ItemFeature struct {
	ArticleID       string          `gorm:"column:article_id;primaryKey"`
	PopularityRank  int             `gorm:"column:popularity_rank;not null;index:item_features_popularity_rank_idx"`
	SalesCount      int             `gorm:"column:sales_count;not null"`
	UniqueCustomers int             `gorm:"column:unique_customers;not null"`
	PeakHour        int             `gorm:"column:peak_hour;not null"`
	Category        *string         `gorm:"column:category"`
	AvgPrice        decimal.Decimal `gorm:"column:avg_price;type:numeric(12,4);not null"`
	ComputedAt      time.Time       `gorm:"column:computed_at;not null"`
}
