package features

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"github.com/helix-rec/helix-backend/pkg/enums"
	pkgerrors "github.com/helix-rec/helix-backend/pkg/errors"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes feature snapshot operations.
//
// The snapshot is rebuilt wholesale by Refresh and read-only everywhere else.
// Missing rows on the read path are legitimate (new customers, stale
// articles) and surface as nil values, never as errors.
type Service interface {
	Refresh(ctx context.Context) (*RefreshStats, error)
	UserFeatures(ctx context.Context, customerID string) (*models.UserFeature, error)
	ItemFeatures(ctx context.Context, articleIDs []string) (map[string]models.ItemFeature, error)
	TopItems(ctx context.Context, k int) ([]models.ItemFeature, error)
	Stats(ctx context.Context) (*SnapshotStats, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	cfg      config.FeaturesConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs a feature store service instance.
func NewService(repo *Repository, dbClient *db.Client, cfg config.FeaturesConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("features repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Refresh recomputes both feature tables from the transaction log as of now.
// Both tables are replaced inside one transaction, so a failed rebuild leaves
// the previous snapshot authoritative.
func (s *service) Refresh(ctx context.Context) (*RefreshStats, error) {
	started := s.now()
	computedAt := started.UTC()
	userWindowStart := computedAt.AddDate(0, 0, -s.cfg.UserLookbackDays)
	itemWindowStart := computedAt.AddDate(0, 0, -s.cfg.ItemLookbackDays)

	txns, err := s.repo.ListTransactionsSince(ctx, userWindowStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRefreshFailure, err, "reading transaction source")
	}

	userRows := buildUserFeatures(txns, computedAt)
	itemRows := buildItemFeatures(txns, itemWindowStart, computedAt)

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ReplaceUserFeatures(ctx, userRows); err != nil {
			return fmt.Errorf("replacing user features: %w", err)
		}
		if err := repo.ReplaceItemFeatures(ctx, itemRows); err != nil {
			return fmt.Errorf("replacing item features: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRefreshFailure, err, "persisting feature snapshot")
	}

	stats := &RefreshStats{
		Users:           len(userRows),
		Items:           len(itemRows),
		Transactions:    len(txns),
		UserWindowStart: userWindowStart,
		ItemWindowStart: itemWindowStart,
		ComputedAt:      computedAt,
		Duration:        s.now().Sub(started),
	}

	loggedCtx := s.logg.WithFields(ctx, map[string]any{
		"users":        stats.Users,
		"items":        stats.Items,
		"transactions": stats.Transactions,
	})
	s.logg.Info(loggedCtx, "feature snapshot rebuilt")
	return stats, nil
}

// UserFeatures returns the user's snapshot row, nil when absent.
func (s *service) UserFeatures(ctx context.Context, customerID string) (*models.UserFeature, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.GetUserFeature(ctx, customerID)
}

// ItemFeatures returns snapshot rows keyed by article id; articles with no
// history are omitted from the map.
func (s *service) ItemFeatures(ctx context.Context, articleIDs []string) (map[string]models.ItemFeature, error) {
	rows, err := s.repo.ListItemFeatures(ctx, articleIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.ItemFeature, len(rows))
	for _, row := range rows {
		out[row.ArticleID] = row
	}
	return out, nil
}

// TopItems returns the k most popular items, best rank first.
func (s *service) TopItems(ctx context.Context, k int) ([]models.ItemFeature, error) {
	return s.repo.ListTopItems(ctx, k)
}

// Stats reports snapshot row counts and the last rebuild time.
func (s *service) Stats(ctx context.Context) (*SnapshotStats, error) {
	users, err := s.repo.CountUserFeatures(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.CountItemFeatures(ctx)
	if err != nil {
		return nil, err
	}
	computedAt, err := s.repo.LatestComputedAt(ctx)
	if err != nil {
		return nil, err
	}
	return &SnapshotStats{Users: users, Items: items, LastComputedAt: computedAt}, nil
}

type userAccumulator struct {
	hourSum       float64
	count         int
	items         map[string]struct{}
	priceSum      decimal.Decimal
	lastPurchase  time.Time
	categoryCount map[string]int
}

func buildUserFeatures(txns []models.Transaction, computedAt time.Time) []models.UserFeature {
	byUser := make(map[string]*userAccumulator)
	for _, txn := range txns {
		acc, ok := byUser[txn.CustomerID]
		if !ok {
			acc = &userAccumulator{
				items:         make(map[string]struct{}),
				categoryCount: make(map[string]int),
				priceSum:      decimal.Zero,
			}
			byUser[txn.CustomerID] = acc
		}
		acc.hourSum += float64(txn.PurchasedAt.UTC().Hour())
		acc.count++
		acc.items[txn.ArticleID] = struct{}{}
		acc.priceSum = acc.priceSum.Add(txn.Price)
		if txn.PurchasedAt.After(acc.lastPurchase) {
			acc.lastPurchase = txn.PurchasedAt
		}
		if txn.Category != nil && *txn.Category != "" {
			acc.categoryCount[*txn.Category]++
		}
	}

	rows := make([]models.UserFeature, 0, len(byUser))
	for customerID, acc := range byUser {
		recency := int(computedAt.Sub(acc.lastPurchase.UTC()).Hours() / 24)
		if recency < 0 {
			recency = 0
		}
		rows = append(rows, models.UserFeature{
			CustomerID:        customerID,
			AvgPurchaseHour:   acc.hourSum / float64(acc.count),
			PreferredCategory: modalCategory(acc.categoryCount),
			PurchaseCount:     acc.count,
			UniqueItems:       len(acc.items),
			AvgPrice:          acc.priceSum.Div(decimal.NewFromInt(int64(acc.count))).Round(4),
			RecencyDays:       recency,
			Frequency:         enums.BucketPurchaseCount(acc.count),
			LastPurchaseAt:    acc.lastPurchase,
			ComputedAt:        computedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })
	return rows
}

type itemAccumulator struct {
	sales         int
	customers     map[string]struct{}
	hourCount     [24]int
	categoryCount map[string]int
	priceSum      decimal.Decimal
}

func buildItemFeatures(txns []models.Transaction, windowStart, computedAt time.Time) []models.ItemFeature {
	byItem := make(map[string]*itemAccumulator)
	for _, txn := range txns {
		if txn.PurchasedAt.Before(windowStart) {
			continue
		}
		acc, ok := byItem[txn.ArticleID]
		if !ok {
			acc = &itemAccumulator{
				customers:     make(map[string]struct{}),
				categoryCount: make(map[string]int),
				priceSum:      decimal.Zero,
			}
			byItem[txn.ArticleID] = acc
		}
		acc.sales++
		acc.customers[txn.CustomerID] = struct{}{}
		acc.hourCount[txn.PurchasedAt.UTC().Hour()]++
		acc.priceSum = acc.priceSum.Add(txn.Price)
		if txn.Category != nil && *txn.Category != "" {
			acc.categoryCount[*txn.Category]++
		}
	}

	rows := make([]models.ItemFeature, 0, len(byItem))
	for articleID, acc := range byItem {
		rows = append(rows, models.ItemFeature{
			ArticleID:       articleID,
			SalesCount:      acc.sales,
			UniqueCustomers: len(acc.customers),
			PeakHour:        peakHour(acc.hourCount),
			Category:        modalCategory(acc.categoryCount),
			AvgPrice:        acc.priceSum.Div(decimal.NewFromInt(int64(acc.sales))).Round(4),
			ComputedAt:      computedAt,
		})
	}

	// Rank is a total order: sales descending, article id ascending on ties.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SalesCount != rows[j].SalesCount {
			return rows[i].SalesCount > rows[j].SalesCount
		}
		return rows[i].ArticleID < rows[j].ArticleID
	})
	for i := range rows {
		rows[i].PopularityRank = i + 1
	}
	return rows
}

func peakHour(counts [24]int) int {
	best := 0
	for hour := 1; hour < 24; hour++ {
		if counts[hour] > counts[best] {
			best = hour
		}
	}
	return best
}

func modalCategory(counts map[string]int) *string {
	var best string
	bestCount := 0
	for category, count := range counts {
		if count > bestCount || (count == bestCount && bestCount > 0 && category < best) {
			best = category
			bestCount = count
		}
	}
	if bestCount == 0 {
		return nil
	}
	return &best
}
