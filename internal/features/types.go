package features

import "time"

// RefreshStats summarizes one completed snapshot rebuild.
type RefreshStats struct {
	Users           int
	Items           int
	Transactions    int
	UserWindowStart time.Time
	ItemWindowStart time.Time
	ComputedAt      time.Time
	Duration        time.Duration
}

// SnapshotStats describes the currently persisted feature snapshot.
type SnapshotStats struct {
	Users          int64
	Items          int64
	LastComputedAt *time.Time
}
