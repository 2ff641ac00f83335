package models

import (
	"time"

	"github.com/helix-rec/helix-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// UserFeature is one row of the per-customer feature snapshot.
// Rows are replaced wholesale on each refresh; reads treat them as immutable.
type UserFeature struct {
	CustomerID        string                  `gorm:"column:customer_id;primaryKey"`
	AvgPurchaseHour   float64                 `gorm:"column:avg_purchase_hour;not null"`
	PreferredCategory *string                 `gorm:"column:preferred_category"`
	PurchaseCount     int                     `gorm:"column:purchase_count;not null"`
	UniqueItems       int                     `gorm:"column:unique_items;not null"`
	AvgPrice          decimal.Decimal         `gorm:"column:avg_price;type:numeric(12,4);not null"`
	RecencyDays       int                     `gorm:"column:recency_days;not null"`
	Frequency         enums.PurchaseFrequency `gorm:"column:frequency;not null"`
	LastPurchaseAt    time.Time               `gorm:"column:last_purchase_at;not null"`
	ComputedAt        time.Time               `gorm:"column:computed_at;not null"`
}
