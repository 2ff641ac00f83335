package experiment

import (
	"time"

	"github.com/google/uuid"
	"github.com/helix-rec/helix-backend/pkg/enums"
)

// outcome is one simulated user's recorded observation, collected in memory
// before aggregation.
type outcome struct {
	arm           enums.ExperimentArm
	clicked       bool
	purchaseCount int
	satisfaction  int
	sendHour      int
}

// ArmStats aggregates one arm of a completed run.
type ArmStats struct {
	Users        int
	CTR          float64
	AvgPurchases float64
	AvgSat       float64
}

// RunResult is the outcome of a full simulation run.
type RunResult struct {
	RunID       uuid.UUID
	Control     ArmStats
	Test        ArmStats
	Skipped     int
	ChiSquare   float64
	ChiPValue   float64
	TStat       float64
	TPValue     float64
	SatTStat    float64
	SatTPValue  float64
	Significant bool
	Alpha       float64
	Duration    time.Duration
}
