package candidates

import "sort"

// Neighbor is one co-visitation edge: another article and the number of
// customers who purchased both.
type Neighbor struct {
	ArticleID string
	Weight    int
}

// Matrix is the co-visitation structure: article -> neighbors ordered by
// weight descending, article id ascending on ties. It is immutable once
// built and safe for concurrent readers.
type Matrix struct {
	neighbors map[string][]Neighbor
	pairs     int
	baskets   int
}

// Neighbors returns the pre-ranked co-visitation edges for the article.
// Callers must not mutate the returned slice.
func (m *Matrix) Neighbors(articleID string) []Neighbor {
	if m == nil {
		return nil
	}
	return m.neighbors[articleID]
}

// Stats reports the size of the structure.
func (m *Matrix) Stats() MatrixStats {
	if m == nil {
		return MatrixStats{}
	}
	return MatrixStats{Items: len(m.neighbors), Pairs: m.pairs, BuiltFrom: m.baskets}
}

// BuildMatrix computes pairwise co-occurrence counts from per-customer
// purchase tuples. Each customer contributes at most one count per item
// pair regardless of repeat purchases.
func BuildMatrix(tuples []PurchaseTuple) *Matrix {
	baskets := make(map[string][]string)
	seen := make(map[string]map[string]struct{})
	for _, tuple := range tuples {
		if tuple.CustomerID == "" || tuple.ArticleID == "" {
			continue
		}
		articles, ok := seen[tuple.CustomerID]
		if !ok {
			articles = make(map[string]struct{})
			seen[tuple.CustomerID] = articles
		}
		if _, dup := articles[tuple.ArticleID]; dup {
			continue
		}
		articles[tuple.ArticleID] = struct{}{}
		baskets[tuple.CustomerID] = append(baskets[tuple.CustomerID], tuple.ArticleID)
	}

	weights := make(map[string]map[string]int)
	bump := func(a, b string) {
		edges, ok := weights[a]
		if !ok {
			edges = make(map[string]int)
			weights[a] = edges
		}
		edges[b]++
	}
	for _, basket := range baskets {
		for i := 0; i < len(basket); i++ {
			for j := i + 1; j < len(basket); j++ {
				bump(basket[i], basket[j])
				bump(basket[j], basket[i])
			}
		}
	}

	neighbors := make(map[string][]Neighbor, len(weights))
	pairs := 0
	for articleID, edges := range weights {
		ranked := make([]Neighbor, 0, len(edges))
		for other, weight := range edges {
			ranked = append(ranked, Neighbor{ArticleID: other, Weight: weight})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Weight != ranked[j].Weight {
				return ranked[i].Weight > ranked[j].Weight
			}
			return ranked[i].ArticleID < ranked[j].ArticleID
		})
		neighbors[articleID] = ranked
		pairs += len(ranked)
	}

	return &Matrix{neighbors: neighbors, pairs: pairs / 2, baskets: len(baskets)}
}
