package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/helix-rec/helix-backend/internal/candidates"
	"github.com/helix-rec/helix-backend/internal/persona"
	"github.com/helix-rec/helix-backend/internal/serving"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"github.com/helix-rec/helix-backend/pkg/enums"
	pkgerrors "github.com/helix-rec/helix-backend/pkg/errors"
	"github.com/helix-rec/helix-backend/pkg/logger"
)

// Mixing constant for deriving independent per-user random streams.
const userSeedStride = 0x9E3779B97F4A7C15

// Service drives the control/test simulation and its significance testing.
type Service interface {
	Run(ctx context.Context) (*RunResult, error)
}

type predictor interface {
	Predict(ctx context.Context, customerID string, topK int) (*serving.Prediction, error)
}

type popularitySource interface {
	GeneratePopularity(ctx context.Context, k int) ([]candidates.Candidate, error)
}

type itemReader interface {
	ItemFeatures(ctx context.Context, articleIDs []string) (map[string]models.ItemFeature, error)
}

type service struct {
	serving  predictor
	popular  popularitySource
	items    itemReader
	personas persona.Generator
	repo     *Repository
	cfg      config.ExperimentConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs an experiment simulator instance.
func NewService(
	servingSvc predictor,
	popular popularitySource,
	items itemReader,
	personas persona.Generator,
	repo *Repository,
	cfg config.ExperimentConfig,
	logg *logger.Logger,
) (Service, error) {
	if servingSvc == nil {
		return nil, fmt.Errorf("serving service required")
	}
	if popular == nil {
		return nil, fmt.Errorf("popularity source required")
	}
	if items == nil {
		return nil, fmt.Errorf("item feature reader required")
	}
	if personas == nil {
		return nil, fmt.Errorf("persona generator required")
	}
	if repo == nil {
		return nil, fmt.Errorf("experiment repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		serving:  servingSvc,
		popular:  popular,
		items:    items,
		personas: personas,
		repo:     repo,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Run simulates cfg.Users virtual users split 50/50 across control and test,
// records every outcome, and derives the significance summary. Per-user
// failures are logged and skipped; only the outcome of users that completed
// all steps enters either arm's denominator.
func (s *service) Run(ctx context.Context) (*RunResult, error) {
	started := s.now()
	runID := uuid.New()
	runCtx := s.logg.WithField(ctx, "run_id", runID.String())
	s.logg.Info(s.logg.WithFields(runCtx, map[string]any{
		"users": s.cfg.Users,
		"seed":  s.cfg.Seed,
	}), "experiment run starting")

	// Arms are drawn up front from a dedicated seeded stream, so the
	// assignment sequence depends only on (seed, user ordering), not on
	// worker scheduling.
	assignRng := rand.New(rand.NewSource(s.cfg.Seed))
	arms := make([]enums.ExperimentArm, s.cfg.Users)
	for i := range arms {
		if assignRng.Intn(2) == 0 {
			arms[i] = enums.ExperimentArmControl
		} else {
			arms[i] = enums.ExperimentArmTest
		}
	}

	outcomes := make([]*outcome, s.cfg.Users)
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.simulateUser(runCtx, runID, i, arms[i])
			}
		}()
	}
	for i := 0; i < s.cfg.Users; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := s.aggregate(runID, outcomes)
	result.Duration = s.now().Sub(started)

	if err := s.persistSummary(runCtx, runID, result); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(runCtx, map[string]any{
		"control_users": result.Control.Users,
		"test_users":    result.Test.Users,
		"skipped":       result.Skipped,
		"chi_square":    result.ChiSquare,
		"p_value":       result.ChiPValue,
		"significant":   result.Significant,
	}), "experiment run completed")
	return result, nil
}

// simulateUser walks one user through assigned -> served -> evaluated ->
// recorded. Any failure returns nil and the user is skipped.
func (s *service) simulateUser(ctx context.Context, runID uuid.UUID, index int, arm enums.ExperimentArm) (out *outcome) {
	simUserID := fmt.Sprintf("sim-%05d", index)
	userCtx := s.logg.WithArm(s.logg.WithUserID(ctx, simUserID), arm.String())

	defer func() {
		if r := recover(); r != nil {
			out = nil
			s.logg.Error(userCtx, "simulated user panicked, skipping",
				pkgerrors.New(pkgerrors.CodeSimulationFailure, fmt.Sprintf("panic: %v", r)))
		}
	}()

	rng := rand.New(rand.NewSource(s.cfg.Seed + int64(uint64(index)*userSeedStride)))
	p := s.personas.Generate(userCtx, simUserID, rng)

	shown, sendHour, err := s.serve(userCtx, simUserID, arm, rng)
	if err != nil {
		s.logg.Warn(s.logg.WithField(userCtx, "error", err.Error()), "serving step failed, skipping user")
		return nil
	}

	evaluation := persona.Evaluate(p, shown, rng)

	row := &models.ExperimentOutcome{
		ID:            uuid.New(),
		RunID:         runID,
		SimUserID:     simUserID,
		Arm:           arm,
		Clicked:       evaluation.Clicked,
		PurchaseCount: evaluation.PurchaseCount,
		Satisfaction:  evaluation.Satisfaction,
		SendHour:      sendHour,
	}
	if err := s.repo.CreateOutcome(userCtx, row); err != nil {
		s.logg.Warn(s.logg.WithField(userCtx, "error", err.Error()), "recording outcome failed, skipping user")
		return nil
	}

	return &outcome{
		arm:           arm,
		clicked:       evaluation.Clicked,
		purchaseCount: evaluation.PurchaseCount,
		satisfaction:  evaluation.Satisfaction,
		sendHour:      sendHour,
	}
}

// serve produces the item list and send hour for the arm: control gets
// popularity-only items and a uniform send hour, test gets the full
// personalized prediction.
func (s *service) serve(ctx context.Context, simUserID string, arm enums.ExperimentArm, rng *rand.Rand) ([]persona.ShownItem, int, error) {
	var articleIDs []string
	var sendHour int

	switch arm {
	case enums.ExperimentArmControl:
		topItems, err := s.popular.GeneratePopularity(ctx, s.cfg.ItemsShown)
		if err != nil {
			return nil, 0, err
		}
		for _, c := range topItems {
			articleIDs = append(articleIDs, c.ArticleID)
		}
		span := s.cfg.SendHourMax - s.cfg.SendHourMin + 1
		sendHour = s.cfg.SendHourMin + rng.Intn(span)
	default:
		prediction, err := s.serving.Predict(ctx, simUserID, s.cfg.ItemsShown)
		if err != nil {
			return nil, 0, err
		}
		for _, rec := range prediction.Recommendations {
			articleIDs = append(articleIDs, rec.ArticleID)
		}
		sendHour = prediction.OptimalSendHour
	}

	items, err := s.items.ItemFeatures(ctx, articleIDs)
	if err != nil {
		return nil, 0, err
	}
	shown := make([]persona.ShownItem, 0, len(articleIDs))
	for _, articleID := range articleIDs {
		item := persona.ShownItem{ArticleID: articleID}
		if feature, ok := items[articleID]; ok {
			item.Category = feature.Category
		}
		shown = append(shown, item)
	}
	return shown, sendHour, nil
}

func (s *service) aggregate(runID uuid.UUID, outcomes []*outcome) *RunResult {
	var control, test []*outcome
	skipped := 0
	for _, o := range outcomes {
		switch {
		case o == nil:
			skipped++
		case o.arm == enums.ExperimentArmControl:
			control = append(control, o)
		default:
			test = append(test, o)
		}
	}

	controlStats := armStats(control)
	testStats := armStats(test)

	controlClicked := float64(clickCount(control))
	testClicked := float64(clickCount(test))
	chi, chiP := ChiSquare2x2(
		testClicked, float64(len(test))-testClicked,
		controlClicked, float64(len(control))-controlClicked,
	)

	tStat, tP := TwoSampleTTest(purchaseSeries(test), purchaseSeries(control))
	satStat, satP := TwoSampleTTest(satisfactionSeries(test), satisfactionSeries(control))

	return &RunResult{
		RunID:       runID,
		Control:     controlStats,
		Test:        testStats,
		Skipped:     skipped,
		ChiSquare:   chi,
		ChiPValue:   chiP,
		TStat:       tStat,
		TPValue:     tP,
		SatTStat:    satStat,
		SatTPValue:  satP,
		Significant: chiP < s.cfg.Alpha,
		Alpha:       s.cfg.Alpha,
	}
}

func (s *service) persistSummary(ctx context.Context, runID uuid.UUID, result *RunResult) error {
	row := &models.ExperimentSummary{
		ID:                  uuid.New(),
		RunID:               runID,
		ControlUsers:        result.Control.Users,
		TestUsers:           result.Test.Users,
		SkippedUsers:        result.Skipped,
		ControlCTR:          result.Control.CTR,
		TestCTR:             result.Test.CTR,
		ControlAvgPurchases: result.Control.AvgPurchases,
		TestAvgPurchases:    result.Test.AvgPurchases,
		ControlAvgSat:       result.Control.AvgSat,
		TestAvgSat:          result.Test.AvgSat,
		ChiSquare:           result.ChiSquare,
		ChiPValue:           result.ChiPValue,
		PurchasesTStat:      result.TStat,
		PurchasesPValue:     result.TPValue,
		SatisfactionTStat:   result.SatTStat,
		SatisfactionPValue:  result.SatTPValue,
		Significant:         result.Significant,
		Alpha:               result.Alpha,
	}
	if err := s.repo.CreateSummary(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeSimulationFailure, err, "persisting run summary")
	}
	return nil
}

func armStats(outcomes []*outcome) ArmStats {
	stats := ArmStats{Users: len(outcomes)}
	if stats.Users == 0 {
		return stats
	}
	purchases, sat := 0, 0
	for _, o := range outcomes {
		purchases += o.purchaseCount
		sat += o.satisfaction
	}
	stats.CTR = float64(clickCount(outcomes)) / float64(stats.Users)
	stats.AvgPurchases = float64(purchases) / float64(stats.Users)
	stats.AvgSat = float64(sat) / float64(stats.Users)
	return stats
}

func clickCount(outcomes []*outcome) int {
	clicked := 0
	for _, o := range outcomes {
		if o.clicked {
			clicked++
		}
	}
	return clicked
}

func purchaseSeries(outcomes []*outcome) []float64 {
	series := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		series = append(series, float64(o.purchaseCount))
	}
	return series
}

func satisfactionSeries(outcomes []*outcome) []float64 {
	series := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		series = append(series, float64(o.satisfaction))
	}
	return series
}
