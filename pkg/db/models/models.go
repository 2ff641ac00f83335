package models

// All returns every model for schema auto-migration.
func All() []any {
	return []any{
		&Transaction{},
		&UserFeature{},
		&ItemFeature{},
		&ExperimentOutcome{},
		&ExperimentSummary{},
		&BatchResult{},
		&BatchFailure{},
	}
}
