package persona

import "github.com/helix-rec/helix-backend/pkg/enums"

// Persona is one synthetic customer profile. It is always passed by value:
// every simulated user gets a fresh instance and no evaluation step may
// observe another user's mutations.
type Persona struct {
	SimUserID           string
	Age                 int
	Gender              enums.PersonaGender
	Style               enums.PersonaStyle
	ShoppingFrequency   enums.ShoppingFrequency
	BudgetTier          enums.BudgetTier
	PreferredCategories []enums.FashionCategory
	Method              enums.GenerationMethod
}

// ShownItem is one recommended item as presented to a persona.
type ShownItem struct {
	ArticleID string
	Category  *string
}

// Evaluation is the persona's reaction to a served recommendation list.
type Evaluation struct {
	PurchaseCount int
	Satisfaction  int
	Clicked       bool
}
