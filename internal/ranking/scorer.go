package ranking

import (
	"context"

	"github.com/helix-rec/helix-backend/pkg/db/models"
)

// FeatureNames is the fixed column order of a scoring row. Models are
// trained against this order and must never be fed anything else.
var FeatureNames = []string{
	"avg_purchase_hour",
	"purchase_count",
	"recency_days",
	"unique_items",
	"popularity_rank",
	"sales_count",
	"peak_hour",
}

// RowWidth is the number of columns in a scoring row.
var RowWidth = len(FeatureNames)

// Scorer maps feature rows to purchase-likelihood scores in [0,1].
//
// Implementations are replaceable black boxes: callers own row assembly and
// score consumption and must treat a NaN output as "exclude this row", not
// as a request failure.
type Scorer interface {
	Score(ctx context.Context, rows [][]float64) ([]float64, error)
}

// BuildRow assembles one scoring row from a user snapshot and an item
// snapshot, in FeatureNames order.
func BuildRow(user models.UserFeature, item models.ItemFeature) []float64 {
	return []float64{
		user.AvgPurchaseHour,
		float64(user.PurchaseCount),
		float64(user.RecencyDays),
		float64(user.UniqueItems),
		float64(item.PopularityRank),
		float64(item.SalesCount),
		float64(item.PeakHour),
	}
}
