package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/helix-rec/helix-backend/pkg/enums"
	"github.com/helix-rec/helix-backend/pkg/logger"
)

const fallbackCategoryCount = 2

// Generator produces one fresh persona per simulated user.
type Generator interface {
	Generate(ctx context.Context, simUserID string, rng *rand.Rand) Persona
}

type generativeClient interface {
	CheckConnection(ctx context.Context) bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Model is the two-path persona generator: a generative capability when
// reachable, a uniform sampler otherwise. Connectivity is probed once per
// process; any individual call failure falls back without flipping the
// cached probe result.
type Model struct {
	client generativeClient
	logg   *logger.Logger

	probeOnce sync.Once
	available bool

	fallbackLogOnce sync.Once
}

// NewModel constructs a persona model instance.
func NewModel(client generativeClient, logg *logger.Logger) (*Model, error) {
	if client == nil {
		return nil, fmt.Errorf("generative client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Model{client: client, logg: logg}, nil
}

// Generate returns a fresh persona value for the simulated user. It never
// fails: any generative-path problem degrades to the fallback sampler.
func (m *Model) Generate(ctx context.Context, simUserID string, rng *rand.Rand) Persona {
	age := 18 + rng.Intn(48)
	genders := enums.PersonaGenders()
	gender := genders[rng.Intn(len(genders))]

	p := Persona{
		SimUserID: simUserID,
		Age:       age,
		Gender:    gender,
	}

	m.probeOnce.Do(func() {
		m.available = m.client.CheckConnection(ctx)
		if !m.available {
			m.logg.Warn(ctx, "generative persona capability unreachable, sampling fallback personas for this run")
		}
	})

	if m.available {
		if details, ok := m.generateDetails(ctx, age, gender); ok {
			p.Style = details.Style
			p.ShoppingFrequency = details.ShoppingFrequency
			p.BudgetTier = details.BudgetTier
			p.PreferredCategories = details.PreferredCategories
			p.Method = enums.GenerationMethodGenerative
			return p
		}
	}

	fallback := m.sampleFallback(rng)
	p.Style = fallback.Style
	p.ShoppingFrequency = fallback.ShoppingFrequency
	p.BudgetTier = fallback.BudgetTier
	p.PreferredCategories = fallback.PreferredCategories
	p.Method = enums.GenerationMethodFallback
	return p
}

type personaDetails struct {
	Style               enums.PersonaStyle
	ShoppingFrequency   enums.ShoppingFrequency
	BudgetTier          enums.BudgetTier
	PreferredCategories []enums.FashionCategory
}

type personaPayload struct {
	Style      string   `json:"style"`
	Frequency  string   `json:"frequency"`
	Budget     string   `json:"budget"`
	Categories []string `json:"categories"`
}

func (m *Model) generateDetails(ctx context.Context, age int, gender enums.PersonaGender) (personaDetails, bool) {
	prompt := buildPersonaPrompt(age, gender)
	completion, err := m.client.Generate(ctx, prompt)
	if err != nil {
		m.fallbackLogOnce.Do(func() {
			m.logg.Warn(ctx, "generative persona call failed, falling back to sampler")
		})
		return personaDetails{}, false
	}

	payload, err := extractPayload(completion)
	if err != nil {
		m.fallbackLogOnce.Do(func() {
			m.logg.Warn(ctx, "generative persona response unparseable, falling back to sampler")
		})
		return personaDetails{}, false
	}

	details, err := payload.toDetails()
	if err != nil {
		m.fallbackLogOnce.Do(func() {
			m.logg.Warn(ctx, "generative persona response outside enumerated domains, falling back to sampler")
		})
		return personaDetails{}, false
	}
	return details, true
}

func buildPersonaPrompt(age int, gender enums.PersonaGender) string {
	return fmt.Sprintf(`Generate a realistic shopping persona for a %d-year-old %s customer.
Include:
- Style preference (casual, formal, sporty, trendy, vintage)
- Shopping frequency (weekly, monthly, occasionally)
- Budget range (low, medium, high)
- Favorite fashion categories, 2-3 of: tops, bottoms, dresses, shoes, accessories, outerwear

Format as JSON with keys: style, frequency, budget, categories.
Keep it concise and realistic.`, age, gender)
}

// extractPayload pulls the first JSON object out of a completion that may
// carry surrounding prose.
func extractPayload(completion string) (personaPayload, error) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start == -1 || end <= start {
		return personaPayload{}, fmt.Errorf("no JSON object in completion")
	}

	var payload personaPayload
	if err := json.Unmarshal([]byte(completion[start:end+1]), &payload); err != nil {
		return personaPayload{}, err
	}
	return payload, nil
}

func (p personaPayload) toDetails() (personaDetails, error) {
	style, err := enums.ParsePersonaStyle(strings.ToLower(strings.TrimSpace(p.Style)))
	if err != nil {
		return personaDetails{}, err
	}
	frequency, err := enums.ParseShoppingFrequency(strings.ToLower(strings.TrimSpace(p.Frequency)))
	if err != nil {
		return personaDetails{}, err
	}
	budget, err := enums.ParseBudgetTier(strings.ToLower(strings.TrimSpace(p.Budget)))
	if err != nil {
		return personaDetails{}, err
	}
	if len(p.Categories) == 0 {
		return personaDetails{}, fmt.Errorf("no categories in payload")
	}
	categories := make([]enums.FashionCategory, 0, len(p.Categories))
	for _, raw := range p.Categories {
		category, err := enums.ParseFashionCategory(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return personaDetails{}, err
		}
		categories = append(categories, category)
	}
	return personaDetails{
		Style:               style,
		ShoppingFrequency:   frequency,
		BudgetTier:          budget,
		PreferredCategories: categories,
	}, nil
}

// sampleFallback draws each attribute independently and uniformly from its
// enumerated domain, plus two distinct preferred categories.
func (m *Model) sampleFallback(rng *rand.Rand) personaDetails {
	styles := enums.PersonaStyles()
	frequencies := enums.ShoppingFrequencies()
	budgets := enums.BudgetTiers()
	categories := enums.FashionCategories()

	picked := make([]enums.FashionCategory, 0, fallbackCategoryCount)
	for _, idx := range rng.Perm(len(categories))[:fallbackCategoryCount] {
		picked = append(picked, categories[idx])
	}

	return personaDetails{
		Style:               styles[rng.Intn(len(styles))],
		ShoppingFrequency:   frequencies[rng.Intn(len(frequencies))],
		BudgetTier:          budgets[rng.Intn(len(budgets))],
		PreferredCategories: picked,
	}
}
