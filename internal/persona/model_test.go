package persona

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/helix-rec/helix-backend/pkg/enums"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	reachable  bool
	completion string
	err        error
	probes     int
	calls      int
}

func (s *stubClient) CheckConnection(_ context.Context) bool {
	s.probes++
	return s.reachable
}

func (s *stubClient) Generate(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.completion, s.err
}

func newTestModel(t *testing.T, client generativeClient) *Model {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "persona-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	model, err := NewModel(client, logg)
	require.NoError(t, err)
	return model
}

const goodCompletion = `Here is the persona:
{"style": "sporty", "frequency": "weekly", "budget": "high", "categories": ["shoes", "outerwear"]}`

func TestGenerateUsesGenerativePathWhenReachable(t *testing.T) {
	client := &stubClient{reachable: true, completion: goodCompletion}
	model := newTestModel(t, client)

	p := model.Generate(context.Background(), "sim-1", rand.New(rand.NewSource(1)))

	assert.Equal(t, enums.GenerationMethodGenerative, p.Method)
	assert.Equal(t, enums.PersonaStyleSporty, p.Style)
	assert.Equal(t, enums.ShoppingFrequencyWeekly, p.ShoppingFrequency)
	assert.Equal(t, enums.BudgetTierHigh, p.BudgetTier)
	assert.Equal(t, []enums.FashionCategory{enums.FashionCategoryShoes, enums.FashionCategoryOuterwear}, p.PreferredCategories)
	assert.GreaterOrEqual(t, p.Age, 18)
	assert.LessOrEqual(t, p.Age, 65)
	assert.True(t, p.Gender.IsValid())
}

func TestGenerateFallsBackWhenUnreachable(t *testing.T) {
	client := &stubClient{reachable: false}
	model := newTestModel(t, client)

	p := model.Generate(context.Background(), "sim-1", rand.New(rand.NewSource(7)))

	assert.Equal(t, enums.GenerationMethodFallback, p.Method)
	assert.True(t, p.Style.IsValid())
	assert.True(t, p.ShoppingFrequency.IsValid())
	assert.True(t, p.BudgetTier.IsValid())
	require.Len(t, p.PreferredCategories, 2)
	assert.NotEqual(t, p.PreferredCategories[0], p.PreferredCategories[1])
	assert.Equal(t, 0, client.calls, "unreachable capability must not be called")
}

func TestGenerateFallsBackOnUnparseableCompletion(t *testing.T) {
	client := &stubClient{reachable: true, completion: "I cannot help with that."}
	model := newTestModel(t, client)

	p := model.Generate(context.Background(), "sim-1", rand.New(rand.NewSource(3)))
	assert.Equal(t, enums.GenerationMethodFallback, p.Method)
}

func TestGenerateFallsBackOnOutOfDomainValues(t *testing.T) {
	client := &stubClient{
		reachable:  true,
		completion: `{"style": "goth", "frequency": "weekly", "budget": "high", "categories": ["shoes"]}`,
	}
	model := newTestModel(t, client)

	p := model.Generate(context.Background(), "sim-1", rand.New(rand.NewSource(3)))
	assert.Equal(t, enums.GenerationMethodFallback, p.Method)
}

func TestGenerateProbesOnlyOnce(t *testing.T) {
	client := &stubClient{reachable: false}
	model := newTestModel(t, client)
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 25; i++ {
		model.Generate(context.Background(), fmt.Sprintf("sim-%d", i), rng)
	}
	assert.Equal(t, 1, client.probes)
}

func TestCallFailureDoesNotFlipAvailability(t *testing.T) {
	client := &stubClient{reachable: true, err: fmt.Errorf("timeout")}
	model := newTestModel(t, client)
	rng := rand.New(rand.NewSource(5))

	first := model.Generate(context.Background(), "sim-1", rng)
	assert.Equal(t, enums.GenerationMethodFallback, first.Method)

	client.err = nil
	client.completion = goodCompletion
	second := model.Generate(context.Background(), "sim-2", rng)
	assert.Equal(t, enums.GenerationMethodGenerative, second.Method)
}

func TestGenerateReturnsIsolatedInstances(t *testing.T) {
	client := &stubClient{reachable: false}
	model := newTestModel(t, client)
	rng := rand.New(rand.NewSource(9))

	a := model.Generate(context.Background(), "sim-a", rng)
	b := model.Generate(context.Background(), "sim-b", rng)

	assert.Equal(t, "sim-a", a.SimUserID)
	assert.Equal(t, "sim-b", b.SimUserID)

	// Mutating one persona's category slice must not leak into the other.
	require.NotEmpty(t, a.PreferredCategories)
	original := make([]enums.FashionCategory, len(b.PreferredCategories))
	copy(original, b.PreferredCategories)
	a.PreferredCategories[0] = enums.FashionCategoryDresses
	assert.Equal(t, original, b.PreferredCategories)
}
