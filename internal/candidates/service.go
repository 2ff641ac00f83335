package candidates

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db/models"
	"github.com/helix-rec/helix-backend/pkg/enums"
	pkgerrors "github.com/helix-rec/helix-backend/pkg/errors"
	"github.com/helix-rec/helix-backend/pkg/logger"
)

// Service produces bounded, deduplicated candidate sets per customer.
type Service interface {
	Generate(ctx context.Context, customerID string, totalK int) ([]Candidate, error)
	GeneratePopularity(ctx context.Context, k int) ([]Candidate, error)
	RebuildMatrix(ctx context.Context) (MatrixStats, error)
	MatrixStats() MatrixStats
}

type popularityReader interface {
	TopItems(ctx context.Context, k int) ([]models.ItemFeature, error)
}

type service struct {
	repo   *Repository
	items  popularityReader
	cfg    config.CandidatesConfig
	logg   *logger.Logger
	matrix atomic.Pointer[Matrix]
}

// NewService constructs a candidate generator instance.
func NewService(repo *Repository, items popularityReader, cfg config.CandidatesConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("candidates repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item feature reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, items: items, cfg: cfg, logg: logg}, nil
}

// RebuildMatrix recomputes the co-visitation structure from the full log and
// swaps it in atomically. In-flight readers keep the previous structure.
func (s *service) RebuildMatrix(ctx context.Context) (MatrixStats, error) {
	tuples, err := s.repo.ListPurchaseTuples(ctx)
	if err != nil {
		return MatrixStats{}, pkgerrors.Wrap(pkgerrors.CodeRefreshFailure, err, "reading purchase tuples")
	}
	matrix := BuildMatrix(tuples)
	s.matrix.Store(matrix)

	stats := matrix.Stats()
	loggedCtx := s.logg.WithFields(ctx, map[string]any{
		"items":   stats.Items,
		"pairs":   stats.Pairs,
		"baskets": stats.BuiltFrom,
	})
	s.logg.Info(loggedCtx, "co-visitation matrix rebuilt")
	return stats, nil
}

// MatrixStats reports the currently served structure, zero before the first
// rebuild.
func (s *service) MatrixStats() MatrixStats {
	return s.matrix.Load().Stats()
}

// GeneratePopularity returns the top-k global popularity candidates. This is
// identical for every customer and doubles as the cold-start fallback.
func (s *service) GeneratePopularity(ctx context.Context, k int) ([]Candidate, error) {
	items, err := s.items.TopItems(ctx, k)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, Candidate{
			ArticleID:   item.ArticleID,
			Source:      enums.CandidateSourcePopularity,
			SourceScore: float64(item.SalesCount),
		})
	}
	return out, nil
}

// Generate blends co-visitation and popularity candidates for the customer.
// The result holds at most totalK entries with no duplicate article ids;
// customers with no history degrade to popularity-only.
func (s *service) Generate(ctx context.Context, customerID string, totalK int) ([]Candidate, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if totalK <= 0 {
		totalK = s.cfg.TotalK
	}
	popK := int(float64(totalK) * s.cfg.PopularityRatio)
	coK := totalK - popK

	coCandidates, err := s.coVisitationCandidates(ctx, customerID, coK)
	if err != nil {
		return nil, err
	}

	// Fetch at full depth so popularity can backfill a thin co-visitation set.
	popCandidates, err := s.GeneratePopularity(ctx, totalK)
	if err != nil {
		return nil, err
	}

	merged := make([]Candidate, 0, totalK)
	seen := make(map[string]struct{}, totalK)
	appendCandidate := func(c Candidate) {
		if len(merged) >= totalK {
			return
		}
		if _, dup := seen[c.ArticleID]; dup {
			return
		}
		seen[c.ArticleID] = struct{}{}
		merged = append(merged, c)
	}

	for _, c := range coCandidates {
		appendCandidate(c)
	}
	for i, c := range popCandidates {
		if i >= popK && len(merged) >= totalK {
			break
		}
		appendCandidate(c)
	}
	return merged, nil
}

func (s *service) coVisitationCandidates(ctx context.Context, customerID string, k int) ([]Candidate, error) {
	if k <= 0 {
		return nil, nil
	}
	matrix := s.matrix.Load()
	if matrix == nil {
		return nil, nil
	}

	recent, err := s.repo.ListRecentArticles(ctx, customerID, s.cfg.RecentItems)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, nil
	}

	purchased, err := s.repo.ListPurchasedArticles(ctx, customerID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{}, len(purchased))
	for _, articleID := range purchased {
		owned[articleID] = struct{}{}
	}

	weights := make(map[string]int)
	for _, articleID := range recent {
		for _, neighbor := range matrix.Neighbors(articleID) {
			if _, has := owned[neighbor.ArticleID]; has {
				continue
			}
			weights[neighbor.ArticleID] += neighbor.Weight
		}
	}
	if len(weights) == 0 {
		return nil, nil
	}

	ranked := make([]Candidate, 0, len(weights))
	for articleID, weight := range weights {
		ranked = append(ranked, Candidate{
			ArticleID:   articleID,
			Source:      enums.CandidateSourceCoVisitation,
			SourceScore: float64(weight),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].SourceScore != ranked[j].SourceScore {
			return ranked[i].SourceScore > ranked[j].SourceScore
		}
		return ranked[i].ArticleID < ranked[j].ArticleID
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}
