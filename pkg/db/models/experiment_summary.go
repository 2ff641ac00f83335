package models

import (
	"time"

	"github.com/google/uuid"
)

// ExperimentSummary is the derived per-run significance record.
type ExperimentSummary struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RunID               uuid.UUID `gorm:"column:run_id;type:uuid;not null;uniqueIndex:experiment_summaries_run_id_key"`
	ControlUsers        int       `gorm:"column:control_users;not null"`
	TestUsers           int       `gorm:"column:test_users;not null"`
	SkippedUsers        int       `gorm:"column:skipped_users;not null"`
	ControlCTR          float64   `gorm:"column:control_ctr;not null"`
	TestCTR             float64   `gorm:"column:test_ctr;not null"`
	ControlAvgPurchases float64   `gorm:"column:control_avg_purchases;not null"`
	TestAvgPurchases    float64   `gorm:"column:test_avg_purchases;not null"`
	ControlAvgSat       float64   `gorm:"column:control_avg_sat;not null"`
	TestAvgSat          float64   `gorm:"column:test_avg_sat;not null"`
	ChiSquare           float64   `gorm:"column:chi_square;not null"`
	ChiPValue           float64   `gorm:"column:chi_p_value;not null"`
	PurchasesTStat      float64   `gorm:"column:purchases_t_stat;not null"`
	PurchasesPValue     float64   `gorm:"column:purchases_p_value;not null"`
	SatisfactionTStat   float64   `gorm:"column:satisfaction_t_stat;not null"`
	SatisfactionPValue  float64   `gorm:"column:satisfaction_p_value;not null"`
	Significant         bool      `gorm:"column:significant;not null"`
	Alpha               float64   `gorm:"column:alpha;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
}
