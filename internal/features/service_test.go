package features

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

func setupFeaturesTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	client, err := db.New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "features-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func txn(customer, article, category string, price float64, at time.Time) models.Transaction {
	var cat *string
	if category != "" {
		cat = &category
	}
	return models.Transaction{
		ID:          uuid.New(),
		CustomerID:  customer,
		ArticleID:   article,
		Category:    cat,
		Price:       decimal.NewFromFloat(price),
		PurchasedAt: at,
	}
}

func TestBuildUserFeatures(t *testing.T) {
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	at := func(daysAgo, hour int) time.Time {
		return now.AddDate(0, 0, -daysAgo).Add(time.Duration(hour) * time.Hour)
	}

	rows := buildUserFeatures([]models.Transaction{
		txn("cust-1", "item-a", "shoes", 10, at(5, 10)),
		txn("cust-1", "item-b", "shoes", 30, at(3, 20)),
		txn("cust-1", "item-a", "tops", 20, at(2, 12)),
		txn("cust-2", "item-c", "", 5, at(1, 8)),
	}, now)

	require.Len(t, rows, 2)

	u1 := rows[0]
	assert.Equal(t, "cust-1", u1.CustomerID)
	assert.InDelta(t, 14.0, u1.AvgPurchaseHour, 1e-9)
	assert.Equal(t, 3, u1.PurchaseCount)
	assert.Equal(t, 2, u1.UniqueItems)
	assert.True(t, u1.AvgPrice.Equal(decimal.NewFromInt(20)))
	require.NotNil(t, u1.PreferredCategory)
	assert.Equal(t, "shoes", *u1.PreferredCategory)
	assert.Equal(t, enums.PurchaseFrequencyLow, u1.Frequency)

	u2 := rows[1]
	assert.Equal(t, "cust-2", u2.CustomerID)
	assert.Nil(t, u2.PreferredCategory)
	assert.Equal(t, 0, u2.RecencyDays)
}

func TestBuildUserFeaturesFrequencyBuckets(t *testing.T) {
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	var txns []models.Transaction
	for i := 0; i < 10; i++ {
		txns = append(txns, txn("heavy", fmt.Sprintf("item-%d", i), "", 1, now.Add(-time.Hour)))
	}
	for i := 0; i < 5; i++ {
		txns = append(txns, txn("medium", fmt.Sprintf("item-%d", i), "", 1, now.Add(-time.Hour)))
	}
	txns = append(txns, txn("light", "item-0", "", 1, now.Add(-time.Hour)))

	rows := buildUserFeatures(txns, now)
	byUser := make(map[string]models.UserFeature, len(rows))
	for _, row := range rows {
		byUser[row.CustomerID] = row
	}

	assert.Equal(t, enums.PurchaseFrequencyHigh, byUser["heavy"].Frequency)
	assert.Equal(t, enums.PurchaseFrequencyMedium, byUser["medium"].Frequency)
	assert.Equal(t, enums.PurchaseFrequencyLow, byUser["light"].Frequency)
}

func TestBuildItemFeaturesRankOrder(t *testing.T) {
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	windowStart := now.AddDate(0, 0, -7)
	at := now.Add(-2 * time.Hour)

	var txns []models.Transaction
	// item-b and item-a tie on sales; id ascending breaks the tie.
	for i := 0; i < 3; i++ {
		txns = append(txns, txn(fmt.Sprintf("c%d", i), "item-b", "", 1, at))
		txns = append(txns, txn(fmt.Sprintf("c%d", i), "item-a", "", 1, at))
	}
	for i := 0; i < 5; i++ {
		txns = append(txns, txn(fmt.Sprintf("c%d", i), "item-c", "", 1, at))
	}
	// Outside the item window, must not count.
	txns = append(txns, txn("c9", "item-d", "", 1, now.AddDate(0, 0, -10)))

	rows := buildItemFeatures(txns, windowStart, now)
	require.Len(t, rows, 3)

	assert.Equal(t, "item-c", rows[0].ArticleID)
	assert.Equal(t, 1, rows[0].PopularityRank)
	assert.Equal(t, "item-a", rows[1].ArticleID)
	assert.Equal(t, 2, rows[1].PopularityRank)
	assert.Equal(t, "item-b", rows[2].ArticleID)
	assert.Equal(t, 3, rows[2].PopularityRank)
	assert.Equal(t, 5, rows[0].SalesCount)
	assert.Equal(t, 3, rows[0].UniqueCustomers)
}

func TestPeakHourPrefersSmallestOnTie(t *testing.T) {
	var counts [24]int
	counts[9] = 4
	counts[17] = 4
	counts[3] = 2
	assert.Equal(t, 9, peakHour(counts))
}

func TestRefreshAndReadPaths(t *testing.T) {
	client := setupFeaturesTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	seed := []models.Transaction{
		txn("cust-1", "item-a", "shoes", 25, now.Add(-24*time.Hour)),
		txn("cust-1", "item-b", "shoes", 35, now.Add(-48*time.Hour)),
		txn("cust-2", "item-a", "tops", 25, now.Add(-12*time.Hour)),
		txn("cust-3", "item-c", "tops", 15, now.Add(-1*time.Hour)),
	}
	require.NoError(t, client.DB().Create(&seed).Error)

	svc, err := NewService(NewRepository(client.DB()), client, config.FeaturesConfig{
		UserLookbackDays: 28,
		ItemLookbackDays: 7,
	}, testLogger())
	require.NoError(t, err)

	stats, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Users)
	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, 4, stats.Transactions)

	user, err := svc.UserFeatures(ctx, "cust-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 2, user.PurchaseCount)

	missing, err := svc.UserFeatures(ctx, "cust-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)

	items, err := svc.ItemFeatures(ctx, []string{"item-a", "item-nope"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items["item-a"].SalesCount)

	top, err := svc.TopItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "item-a", top[0].ArticleID)

	snapshot, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snapshot.Users)
	assert.Equal(t, int64(3), snapshot.Items)
	require.NotNil(t, snapshot.LastComputedAt)
}

func TestRefreshReplacesPreviousSnapshot(t *testing.T) {
	client := setupFeaturesTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	first := []models.Transaction{txn("cust-1", "item-a", "", 10, now.Add(-time.Hour))}
	require.NoError(t, client.DB().Create(&first).Error)

	svc, err := NewService(NewRepository(client.DB()), client, config.FeaturesConfig{
		UserLookbackDays: 28,
		ItemLookbackDays: 7,
	}, testLogger())
	require.NoError(t, err)

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)

	second := []models.Transaction{txn("cust-2", "item-b", "", 10, now.Add(-time.Minute))}
	require.NoError(t, client.DB().Create(&second).Error)

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)

	snapshot, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snapshot.Users)
	assert.Equal(t, int64(2), snapshot.Items)
}
