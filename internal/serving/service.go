package serving

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/helix-rec/helix-backend/internal/candidates"
	"github.com/helix-rec/helix-backend/internal/ranking"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"github.com/helix-rec/helix-backend/pkg/enums"
	pkgerrors "github.com/helix-rec/helix-backend/pkg/errors"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/helix-rec/helix-backend/pkg/metrics"
)

// Recency stand-in for customers absent from the feature snapshot.
const defaultRecencyDays = 999

// Rank stand-in for candidates absent from the item snapshot.
const defaultItemRank = 9999

// Service composes candidates, features and the scorer into predictions.
type Service interface {
	Predict(ctx context.Context, customerID string, topK int) (*Prediction, error)
	PredictBatch(ctx context.Context, customerIDs []string) (*BatchReport, error)
	FailedCustomers(ctx context.Context, runID uuid.UUID) ([]string, error)
}

type featureReader interface {
	UserFeatures(ctx context.Context, customerID string) (*models.UserFeature, error)
	ItemFeatures(ctx context.Context, articleIDs []string) (map[string]models.ItemFeature, error)
	TopItems(ctx context.Context, k int) ([]models.ItemFeature, error)
}

type candidateGenerator interface {
	Generate(ctx context.Context, customerID string, totalK int) ([]candidates.Candidate, error)
}

type service struct {
	features   featureReader
	candidates candidateGenerator
	scorer     ranking.Scorer
	repo       *Repository
	cfg        config.ServingConfig
	logg       *logger.Logger
	metrics    *metrics.ServingMetrics
	now        func() time.Time
}

// NewService constructs a serving service instance.
func NewService(
	features featureReader,
	generator candidateGenerator,
	scorer ranking.Scorer,
	repo *Repository,
	cfg config.ServingConfig,
	logg *logger.Logger,
	servingMetrics *metrics.ServingMetrics,
) (Service, error) {
	if features == nil {
		return nil, fmt.Errorf("feature reader required")
	}
	if generator == nil {
		return nil, fmt.Errorf("candidate generator required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer required")
	}
	if repo == nil {
		return nil, fmt.Errorf("serving repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		features:   features,
		candidates: generator,
		scorer:     scorer,
		repo:       repo,
		cfg:        cfg,
		logg:       logg,
		metrics:    servingMetrics,
		now:        time.Now,
	}, nil
}

// Predict returns the ranked top-K recommendations and the optimal send hour
// for the customer. Customers with no history get best-effort popularity
// defaults, never an error.
func (s *service) Predict(ctx context.Context, customerID string, topK int) (*Prediction, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	started := s.now()

	user, err := s.features.UserFeatures(ctx, customerID)
	if err != nil {
		return nil, err
	}

	generated, err := s.candidates.Generate(ctx, customerID, 0)
	if err != nil {
		return nil, err
	}

	recommendations, err := s.rank(ctx, user, generated, topK)
	if err != nil {
		return nil, err
	}
	if len(recommendations) == 0 {
		recommendations, err = s.popularityFallback(ctx, topK)
		if err != nil {
			return nil, err
		}
	}

	prediction := &Prediction{
		CustomerID:      customerID,
		Recommendations: recommendations,
		OptimalSendHour: s.sendHour(user),
		GeneratedAt:     s.now().UTC(),
	}
	s.metrics.ObservePredict(s.now().Sub(started), len(generated))
	return prediction, nil
}

func (s *service) rank(ctx context.Context, user *models.UserFeature, generated []candidates.Candidate, topK int) ([]Recommendation, error) {
	if len(generated) == 0 {
		return nil, nil
	}

	articleIDs := make([]string, 0, len(generated))
	for _, c := range generated {
		articleIDs = append(articleIDs, c.ArticleID)
	}
	items, err := s.features.ItemFeatures(ctx, articleIDs)
	if err != nil {
		return nil, err
	}

	userRow := s.effectiveUser(user)
	rows := make([][]float64, len(generated))
	for i, c := range generated {
		item, ok := items[c.ArticleID]
		if !ok {
			item = models.ItemFeature{ArticleID: c.ArticleID, PopularityRank: defaultItemRank}
		}
		rows[i] = ranking.BuildRow(userRow, item)
	}

	scores, err := s.scorer.Score(ctx, rows)
	if err != nil {
		// A broken scorer degrades to the unranked popularity fallback.
		s.logg.Error(ctx, "scorer call failed", err)
		return nil, nil
	}
	if len(scores) != len(generated) {
		s.logg.Error(ctx, "scorer returned mismatched score count", nil)
		return nil, nil
	}

	scored := make([]Recommendation, 0, len(generated))
	for i, c := range generated {
		if math.IsNaN(scores[i]) || math.IsInf(scores[i], 0) {
			continue
		}
		scored = append(scored, Recommendation{
			ArticleID: c.ArticleID,
			Score:     scores[i],
			Source:    c.Source,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ArticleID < scored[j].ArticleID
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored, nil
}

func (s *service) popularityFallback(ctx context.Context, topK int) ([]Recommendation, error) {
	items, err := s.features.TopItems(ctx, topK)
	if err != nil {
		return nil, err
	}
	out := make([]Recommendation, 0, len(items))
	for i, item := range items {
		out = append(out, Recommendation{
			ArticleID: item.ArticleID,
			Score:     0,
			Rank:      i + 1,
			Source:    enums.CandidateSourcePopularity,
		})
	}
	return out, nil
}

func (s *service) effectiveUser(user *models.UserFeature) models.UserFeature {
	if user != nil {
		return *user
	}
	return models.UserFeature{
		AvgPurchaseHour: float64(s.cfg.DefaultSendHour),
		RecencyDays:     defaultRecencyDays,
		Frequency:       enums.PurchaseFrequencyLow,
	}
}

func (s *service) sendHour(user *models.UserFeature) int {
	if user == nil {
		return s.cfg.DefaultSendHour
	}
	hour := int(math.Round(user.AvgPurchaseHour))
	if hour < 0 || hour > 23 {
		return s.cfg.DefaultSendHour
	}
	return hour
}

// PredictBatch runs Predict for every customer with per-user isolation: one
// customer's failure or panic never aborts the batch. Each customer yields
// exactly one success row or one failure-ledger row under the returned run id.
func (s *service) PredictBatch(ctx context.Context, customerIDs []string) (*BatchReport, error) {
	started := s.now()
	runID := uuid.New()
	runCtx := s.logg.WithField(ctx, "run_id", runID.String())

	workers := s.cfg.BatchWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(customerIDs) && len(customerIDs) > 0 {
		workers = len(customerIDs)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, failed := 0, 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for customerID := range jobs {
				err := s.processBatchCustomer(runCtx, runID, customerID)
				mu.Lock()
				if err != nil {
					failed++
				} else {
					succeeded++
				}
				mu.Unlock()
			}
		}()
	}

	for _, customerID := range customerIDs {
		jobs <- customerID
	}
	close(jobs)
	wg.Wait()

	report := &BatchReport{
		RunID:     runID,
		Total:     len(customerIDs),
		Succeeded: succeeded,
		Failed:    failed,
		Duration:  s.now().Sub(started),
	}
	summaryCtx := s.logg.WithFields(runCtx, map[string]any{
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	})
	s.logg.Info(summaryCtx, "batch inference completed")
	return report, nil
}

// processBatchCustomer returns a non-nil error exactly when a failure row was
// written for the customer.
func (s *service) processBatchCustomer(ctx context.Context, runID uuid.UUID, customerID string) (outErr error) {
	userCtx := s.logg.WithUserID(ctx, customerID)

	defer func() {
		if r := recover(); r != nil {
			outErr = pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("panic: %v", r))
			s.logg.Error(userCtx, "batch prediction panicked", outErr)
			s.recordFailure(userCtx, runID, customerID, outErr)
		}
	}()

	prediction, err := s.Predict(userCtx, customerID, 0)
	if err != nil {
		s.logg.Warn(s.logg.WithField(userCtx, "error", err.Error()), "batch prediction failed")
		s.recordFailure(userCtx, runID, customerID, err)
		return err
	}

	articleIDs := make([]string, 0, len(prediction.Recommendations))
	for _, rec := range prediction.Recommendations {
		articleIDs = append(articleIDs, rec.ArticleID)
	}
	payload, err := json.Marshal(articleIDs)
	if err != nil {
		s.recordFailure(userCtx, runID, customerID, err)
		return err
	}

	row := &models.BatchResult{
		ID:              uuid.New(),
		RunID:           runID,
		CustomerID:      customerID,
		Recommendations: string(payload),
		SendHour:        prediction.OptimalSendHour,
	}
	if err := s.repo.CreateResult(userCtx, row); err != nil {
		s.recordFailure(userCtx, runID, customerID, err)
		return err
	}
	s.metrics.IncBatchOutcome("success")
	return nil
}

func (s *service) recordFailure(ctx context.Context, runID uuid.UUID, customerID string, cause error) {
	row := &models.BatchFailure{
		ID:         uuid.New(),
		RunID:      runID,
		CustomerID: customerID,
		ErrorCode:  string(pkgerrors.CodeOf(cause)),
	}
	if err := s.repo.CreateFailure(ctx, row); err != nil {
		s.logg.Error(ctx, "writing failure ledger row", err)
	}
	s.metrics.IncBatchOutcome("failure")
}

// FailedCustomers lists the customers a previous run failed on, for
// re-driving only that subset.
func (s *service) FailedCustomers(ctx context.Context, runID uuid.UUID) ([]string, error) {
	return s.repo.ListFailedCustomerIDs(ctx, runID)
}
