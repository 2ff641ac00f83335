package candidates

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"github.com/helix-rec/helix-backend/pkg/enums"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubItems struct {
	items []models.ItemFeature
}

func (s *stubItems) TopItems(_ context.Context, k int) ([]models.ItemFeature, error) {
	if k > len(s.items) {
		k = len(s.items)
	}
	return s.items[:k], nil
}

func setupCandidatesTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	client, err := db.New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(&models.Transaction{}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func seedPurchase(t *testing.T, client *db.Client, customer, article string, at time.Time) {
	t.Helper()
	row := models.Transaction{
		ID:          uuid.New(),
		CustomerID:  customer,
		ArticleID:   article,
		Price:       decimal.NewFromInt(10),
		PurchasedAt: at,
	}
	require.NoError(t, client.DB().Create(&row).Error)
}

func newTestService(t *testing.T, client *db.Client, top []models.ItemFeature, cfg config.CandidatesConfig) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "candidates-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(NewRepository(client.DB()), &stubItems{items: top}, cfg, logg)
	require.NoError(t, err)
	return svc
}

func popularityFixture(n int) []models.ItemFeature {
	items := make([]models.ItemFeature, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.ItemFeature{
			ArticleID:      fmt.Sprintf("pop-%02d", i),
			PopularityRank: i + 1,
			SalesCount:     100 - i,
		})
	}
	return items
}

func TestGenerateBlendsSourcesAndDeduplicates(t *testing.T) {
	client := setupCandidatesTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// a and b share i1/i2, so each is the other's strongest neighbor.
	seedPurchase(t, client, "a", "i1", now.Add(-3*time.Hour))
	seedPurchase(t, client, "a", "i2", now.Add(-2*time.Hour))
	seedPurchase(t, client, "b", "i1", now.Add(-5*time.Hour))
	seedPurchase(t, client, "b", "i2", now.Add(-4*time.Hour))
	seedPurchase(t, client, "b", "i3", now.Add(-1*time.Hour))
	seedPurchase(t, client, "c", "i2", now.Add(-6*time.Hour))
	seedPurchase(t, client, "c", "i4", now.Add(-7*time.Hour))

	cfg := config.CandidatesConfig{TotalK: 4, PopularityRatio: 0.5, RecentItems: 10}
	svc := newTestService(t, client, popularityFixture(10), cfg)

	_, err := svc.RebuildMatrix(ctx)
	require.NoError(t, err)

	got, err := svc.Generate(ctx, "a", 4)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "i3", got[0].ArticleID)
	assert.Equal(t, enums.CandidateSourceCoVisitation, got[0].Source)
	assert.Equal(t, "i4", got[1].ArticleID)
	assert.Equal(t, "pop-00", got[2].ArticleID)
	assert.Equal(t, enums.CandidateSourcePopularity, got[2].Source)

	seen := make(map[string]struct{})
	for _, c := range got {
		_, dup := seen[c.ArticleID]
		require.False(t, dup, "duplicate article %s", c.ArticleID)
		seen[c.ArticleID] = struct{}{}
	}
}

func TestGenerateExcludesPurchasedFromCoVisitation(t *testing.T) {
	client := setupCandidatesTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedPurchase(t, client, "a", "i1", now.Add(-time.Hour))
	seedPurchase(t, client, "a", "i2", now.Add(-2*time.Hour))
	seedPurchase(t, client, "b", "i1", now.Add(-time.Hour))
	seedPurchase(t, client, "b", "i2", now.Add(-2*time.Hour))

	cfg := config.CandidatesConfig{TotalK: 10, PopularityRatio: 0.5, RecentItems: 10}
	svc := newTestService(t, client, nil, cfg)

	_, err := svc.RebuildMatrix(ctx)
	require.NoError(t, err)

	got, err := svc.Generate(ctx, "a", 10)
	require.NoError(t, err)
	for _, c := range got {
		assert.NotEqual(t, "i1", c.ArticleID)
		assert.NotEqual(t, "i2", c.ArticleID)
	}
}

func TestGenerateColdStartFallsBackToPopularity(t *testing.T) {
	client := setupCandidatesTestDB(t)
	ctx := context.Background()

	cfg := config.CandidatesConfig{TotalK: 6, PopularityRatio: 0.5, RecentItems: 10}
	svc := newTestService(t, client, popularityFixture(10), cfg)

	_, err := svc.RebuildMatrix(ctx)
	require.NoError(t, err)

	got, err := svc.Generate(ctx, "stranger", 6)
	require.NoError(t, err)
	require.Len(t, got, 6)
	for _, c := range got {
		assert.Equal(t, enums.CandidateSourcePopularity, c.Source)
	}
}

func TestGenerateNeverExceedsBudgetNorPads(t *testing.T) {
	client := setupCandidatesTestDB(t)
	ctx := context.Background()

	cfg := config.CandidatesConfig{TotalK: 100, PopularityRatio: 0.5, RecentItems: 10}
	svc := newTestService(t, client, popularityFixture(3), cfg)

	_, err := svc.RebuildMatrix(ctx)
	require.NoError(t, err)

	got, err := svc.Generate(ctx, "anyone", 100)
	require.NoError(t, err)
	// Only three items exist; the result shrinks instead of padding.
	assert.Len(t, got, 3)
}

func TestGenerateBeforeMatrixRebuildIsPopularityOnly(t *testing.T) {
	client := setupCandidatesTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedPurchase(t, client, "a", "i1", now.Add(-time.Hour))

	cfg := config.CandidatesConfig{TotalK: 4, PopularityRatio: 0.5, RecentItems: 10}
	svc := newTestService(t, client, popularityFixture(4), cfg)

	got, err := svc.Generate(ctx, "a", 4)
	require.NoError(t, err)
	for _, c := range got {
		assert.Equal(t, enums.CandidateSourcePopularity, c.Source)
	}
}

func TestGenerateRejectsEmptyCustomer(t *testing.T) {
	client := setupCandidatesTestDB(t)
	svc := newTestService(t, client, nil, config.CandidatesConfig{TotalK: 10, PopularityRatio: 0.5, RecentItems: 10})

	_, err := svc.Generate(context.Background(), "", 10)
	require.Error(t, err)
}
