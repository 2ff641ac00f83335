package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one purchase line from the upstream transaction log.
type Transaction struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID  string          `gorm:"column:customer_id;not null;index:transactions_customer_id_idx"`
	ArticleID   string          `gorm:"column:article_id;not null;index:transactions_article_id_idx"`
	Category    *string         `gorm:"column:category"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,4);not null"`
	PurchasedAt time.Time       `gorm:"column:purchased_at;not null;index:transactions_purchased_at_idx"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
