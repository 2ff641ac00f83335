package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/helix-rec/helix-backend/pkg/enums"
)

// ExperimentOutcome is one append-only row of the experiment log.
type ExperimentOutcome struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	RunID         uuid.UUID           `gorm:"column:run_id;type:uuid;not null;index:experiment_outcomes_run_id_idx"`
	SimUserID     string              `gorm:"column:sim_user_id;not null"`
	Arm           enums.ExperimentArm `gorm:"column:arm;not null"`
	Clicked       bool                `gorm:"column:clicked;not null"`
	PurchaseCount int                 `gorm:"column:purchase_count;not null"`
	Satisfaction  int                 `gorm:"column:satisfaction;not null"`
	SendHour      int                 `gorm:"column:send_hour;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
