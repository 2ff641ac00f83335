package experiment

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/helix-rec/helix-backend/internal/candidates"
	"github.com/helix-rec/helix-backend/internal/persona"
	"github.com/helix-rec/helix-backend/internal/serving"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"github.com/helix-rec/helix-backend/pkg/enums"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	mu     sync.Mutex
	served []string
	err    error
}

func (s *stubPredictor) Predict(_ context.Context, customerID string, topK int) (*serving.Prediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	s.served = append(s.served, customerID)
	s.mu.Unlock()

	recs := make([]serving.Recommendation, 0, topK)
	for i := 0; i < topK; i++ {
		recs = append(recs, serving.Recommendation{
			ArticleID: fmt.Sprintf("ranked-%02d", i),
			Score:     1 - float64(i)/10,
			Rank:      i + 1,
			Source:    enums.CandidateSourcePopularity,
		})
	}
	return &serving.Prediction{
		CustomerID:      customerID,
		Recommendations: recs,
		OptimalSendHour: 19,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

type stubPopular struct{ err error }

func (s *stubPopular) GeneratePopularity(_ context.Context, k int) ([]candidates.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]candidates.Candidate, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, candidates.Candidate{
			ArticleID: fmt.Sprintf("pop-%02d", i),
			Source:    enums.CandidateSourcePopularity,
		})
	}
	return out, nil
}

type stubItems struct{ err error }

func (s *stubItems) ItemFeatures(_ context.Context, articleIDs []string) (map[string]models.ItemFeature, error) {
	if s.err != nil {
		return nil, s.err
	}
	shoes := "shoes"
	out := make(map[string]models.ItemFeature, len(articleIDs))
	for _, id := range articleIDs {
		out[id] = models.ItemFeature{ArticleID: id, Category: &shoes}
	}
	return out, nil
}

type stubPersonas struct{}

func (stubPersonas) Generate(_ context.Context, simUserID string, rng *rand.Rand) persona.Persona {
	return persona.Persona{
		SimUserID:           simUserID,
		Age:                 18 + rng.Intn(48),
		Gender:              enums.PersonaGenderNonBinary,
		Style:               enums.PersonaStyleCasual,
		ShoppingFrequency:   enums.ShoppingFrequencyMonthly,
		BudgetTier:          enums.BudgetTierMedium,
		PreferredCategories: []enums.FashionCategory{enums.FashionCategoryShoes},
		Method:              enums.GenerationMethodFallback,
	}
}

func setupExperimentTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	client, err := db.New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(&models.ExperimentOutcome{}, &models.ExperimentSummary{}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func experimentConfig(users int, seed int64) config.ExperimentConfig {
	return config.ExperimentConfig{
		Seed:        seed,
		Users:       users,
		ItemsShown:  5,
		Alpha:       0.05,
		SendHourMin: 9,
		SendHourMax: 21,
		Workers:     4,
	}
}

func newTestExperiment(t *testing.T, client *db.Client, predictor *stubPredictor, popular *stubPopular, items *stubItems, cfg config.ExperimentConfig) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "experiment-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(predictor, popular, items, stubPersonas{}, NewRepository(client.DB()), cfg, logg)
	require.NoError(t, err)
	return svc
}

func TestRunRecordsEveryCompletedUser(t *testing.T) {
	client := setupExperimentTestDB(t)
	ctx := context.Background()

	svc := newTestExperiment(t, client, &stubPredictor{}, &stubPopular{}, &stubItems{}, experimentConfig(60, 42))
	result, err := svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 60, result.Control.Users+result.Test.Users)
	assert.GreaterOrEqual(t, result.Control.CTR, 0.0)
	assert.LessOrEqual(t, result.Control.CTR, 1.0)

	repo := NewRepository(client.DB())
	count, err := repo.CountOutcomes(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), count)

	summary, err := repo.GetSummary(ctx, result.RunID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, result.Control.Users, summary.ControlUsers)
	assert.Equal(t, result.Test.Users, summary.TestUsers)
	assert.Equal(t, 0.05, summary.Alpha)
}

func TestRunAssignmentIsReproducibleUnderSeed(t *testing.T) {
	ctx := context.Background()

	runServed := func(t *testing.T) []string {
		client := setupExperimentTestDB(t)
		predictor := &stubPredictor{}
		svc := newTestExperiment(t, client, predictor, &stubPopular{}, &stubItems{}, experimentConfig(80, 1234))
		_, err := svc.Run(ctx)
		require.NoError(t, err)
		ids := append([]string(nil), predictor.served...)
		return ids
	}

	first := runServed(t)
	second := runServed(t)
	assert.ElementsMatch(t, first, second, "test-arm membership must be seed-deterministic")
}

func TestRunArmSplitConvergesToHalf(t *testing.T) {
	client := setupExperimentTestDB(t)

	svc := newTestExperiment(t, client, &stubPredictor{}, &stubPopular{}, &stubItems{}, experimentConfig(1000, 7))
	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 500, result.Control.Users, 60)
	assert.InDelta(t, 500, result.Test.Users, 60)
}

func TestRunSkipsUsersWhenServingFails(t *testing.T) {
	client := setupExperimentTestDB(t)
	ctx := context.Background()

	// Every serve step fails, so every user is skipped but the run completes.
	svc := newTestExperiment(t, client,
		&stubPredictor{err: fmt.Errorf("serving down")},
		&stubPopular{err: fmt.Errorf("serving down")},
		&stubItems{},
		experimentConfig(30, 42))

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Skipped)
	assert.Equal(t, 0, result.Control.Users)
	assert.Equal(t, 0, result.Test.Users)

	count, err := NewRepository(client.DB()).CountOutcomes(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRunControlSendHourStaysInRange(t *testing.T) {
	client := setupExperimentTestDB(t)
	ctx := context.Background()

	svc := newTestExperiment(t, client, &stubPredictor{}, &stubPopular{}, &stubItems{}, experimentConfig(120, 99))
	result, err := svc.Run(ctx)
	require.NoError(t, err)

	var rows []models.ExperimentOutcome
	require.NoError(t, client.DB().Where("run_id = ?", result.RunID).Find(&rows).Error)
	for _, row := range rows {
		if row.Arm == enums.ExperimentArmControl {
			assert.GreaterOrEqual(t, row.SendHour, 9)
			assert.LessOrEqual(t, row.SendHour, 21)
		} else {
			assert.Equal(t, 19, row.SendHour)
		}
	}
}
