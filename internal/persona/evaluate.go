package persona

import (
	"math"
	"math/rand"

	"github.com/helix-rec/helix-backend/pkg/enums"
)

// Purchase probability pieces. The draw for each shown item is a Bernoulli
// trial on budget base + frequency boost + a category-match boost.
const (
	purchaseBaseLow    = 0.08
	purchaseBaseMedium = 0.12
	purchaseBaseHigh   = 0.18

	frequencyBoostWeekly  = 0.05
	frequencyBoostMonthly = 0.02

	categoryMatchBoost = 0.15
	purchaseProbCap    = 0.95
)

// Evaluate scores a served recommendation list against the persona. It is a
// pure function of (persona, items, rng): the experiment arm never enters
// except through what was actually served.
func Evaluate(p Persona, shown []ShownItem, rng *rand.Rand) Evaluation {
	if len(shown) == 0 {
		return Evaluation{PurchaseCount: 0, Satisfaction: 1, Clicked: false}
	}

	preferred := make(map[enums.FashionCategory]struct{}, len(p.PreferredCategories))
	for _, category := range p.PreferredCategories {
		preferred[category] = struct{}{}
	}

	base := purchaseBase(p.BudgetTier) + frequencyBoost(p.ShoppingFrequency)
	purchases := 0
	matched := 0
	for _, item := range shown {
		prob := base
		if itemMatches(item, preferred) {
			matched++
			prob += categoryMatchBoost
		}
		if prob > purchaseProbCap {
			prob = purchaseProbCap
		}
		if rng.Float64() < prob {
			purchases++
		}
	}

	clicked := purchases > 0
	matchRatio := float64(matched) / float64(len(shown))
	return Evaluation{
		PurchaseCount: purchases,
		Satisfaction:  satisfaction(matchRatio, clicked),
		Clicked:       clicked,
	}
}

func itemMatches(item ShownItem, preferred map[enums.FashionCategory]struct{}) bool {
	if item.Category == nil {
		return false
	}
	_, ok := preferred[enums.FashionCategory(*item.Category)]
	return ok
}

func purchaseBase(tier enums.BudgetTier) float64 {
	switch tier {
	case enums.BudgetTierHigh:
		return purchaseBaseHigh
	case enums.BudgetTierMedium:
		return purchaseBaseMedium
	default:
		return purchaseBaseLow
	}
}

func frequencyBoost(frequency enums.ShoppingFrequency) float64 {
	switch frequency {
	case enums.ShoppingFrequencyWeekly:
		return frequencyBoostWeekly
	case enums.ShoppingFrequencyMonthly:
		return frequencyBoostMonthly
	default:
		return 0
	}
}

// satisfaction maps how well the served list fit the persona onto a 1-5
// ordinal scale.
func satisfaction(matchRatio float64, clicked bool) int {
	score := 0.10 + 0.55*matchRatio
	if clicked {
		score += 0.35
	}
	rating := 1 + int(math.Round(4*score))
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}
	return rating
}
