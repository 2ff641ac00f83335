package persona

import (
	"math/rand"
	"testing"

	"github.com/helix-rec/helix-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shownFixture(categories ...string) []ShownItem {
	items := make([]ShownItem, 0, len(categories))
	for i, category := range categories {
		item := ShownItem{ArticleID: string(rune('a' + i))}
		if category != "" {
			c := category
			item.Category = &c
		}
		items = append(items, item)
	}
	return items
}

func highSpender() Persona {
	return Persona{
		SimUserID:           "sim-1",
		Age:                 30,
		Gender:              enums.PersonaGenderFemale,
		Style:               enums.PersonaStyleTrendy,
		ShoppingFrequency:   enums.ShoppingFrequencyWeekly,
		BudgetTier:          enums.BudgetTierHigh,
		PreferredCategories: []enums.FashionCategory{enums.FashionCategoryShoes, enums.FashionCategoryDresses},
		Method:              enums.GenerationMethodFallback,
	}
}

func TestEvaluateBounds(t *testing.T) {
	p := highSpender()
	shown := shownFixture("shoes", "dresses", "tops", "", "outerwear")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		got := Evaluate(p, shown, rng)
		assert.GreaterOrEqual(t, got.PurchaseCount, 0)
		assert.LessOrEqual(t, got.PurchaseCount, len(shown))
		assert.GreaterOrEqual(t, got.Satisfaction, 1)
		assert.LessOrEqual(t, got.Satisfaction, 5)
		assert.Equal(t, got.PurchaseCount > 0, got.Clicked)
	}
}

func TestEvaluateIsDeterministicGivenSeed(t *testing.T) {
	p := highSpender()
	shown := shownFixture("shoes", "tops", "dresses")

	first := Evaluate(p, shown, rand.New(rand.NewSource(7)))
	second := Evaluate(p, shown, rand.New(rand.NewSource(7)))
	require.Equal(t, first, second)
}

func TestEvaluateEmptyListIsNeutral(t *testing.T) {
	got := Evaluate(highSpender(), nil, rand.New(rand.NewSource(1)))
	assert.Equal(t, Evaluation{PurchaseCount: 0, Satisfaction: 1, Clicked: false}, got)
}

func TestEvaluateMatchingServesBuyMore(t *testing.T) {
	p := highSpender()
	matching := shownFixture("shoes", "dresses", "shoes", "dresses", "shoes")
	mismatched := shownFixture("tops", "bottoms", "tops", "bottoms", "tops")

	const trials = 3000
	rng := rand.New(rand.NewSource(123))
	matchTotal, missTotal := 0, 0
	for i := 0; i < trials; i++ {
		matchTotal += Evaluate(p, matching, rng).PurchaseCount
		missTotal += Evaluate(p, mismatched, rng).PurchaseCount
	}
	assert.Greater(t, matchTotal, missTotal)
}

func TestSatisfactionScale(t *testing.T) {
	assert.Equal(t, 1, satisfaction(0, false))
	assert.Equal(t, 3, satisfaction(0.5, false))
	assert.Equal(t, 5, satisfaction(1, true))
}
