package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchResult is one successful row of a batch inference run.
// Recommendations holds the ordered article ids as a JSON array.
type BatchResult struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RunID           uuid.UUID `gorm:"column:run_id;type:uuid;not null;index:batch_results_run_id_idx"`
	CustomerID      string    `gorm:"column:customer_id;not null"`
	Recommendations string    `gorm:"column:recommendations;not null"`
	SendHour        int       `gorm:"column:send_hour;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BatchFailure is the failure-ledger row for a user the batch skipped.
// The ledger is sufficient to re-drive only the failed subset of a run.
type BatchFailure struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RunID      uuid.UUID `gorm:"column:run_id;type:uuid;not null;index:batch_failures_run_id_idx"`
	CustomerID string    `gorm:"column:customer_id;not null"`
	ErrorCode  string    `gorm:"column:error_code;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
