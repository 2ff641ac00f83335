package enums

import "fmt"

// PersonaGender is the enumerated gender domain for synthetic personas.
type PersonaGender string

const (
	PersonaGenderMale      PersonaGender = "male"
	PersonaGenderFemale    PersonaGender = "female"
	PersonaGenderNonBinary PersonaGender = "non-binary"
)

// PersonaGenders returns the full gender domain in declaration order.
func PersonaGenders() []PersonaGender {
	return []PersonaGender{PersonaGenderMale, PersonaGenderFemale, PersonaGenderNonBinary}
}

// IsValid reports whether the value is a known PersonaGender.
func (g PersonaGender) IsValid() bool {
	for _, candidate := range PersonaGenders() {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParsePersonaGender converts raw input into a PersonaGender.
func ParsePersonaGender(value string) (PersonaGender, error) {
	for _, candidate := range PersonaGenders() {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid persona gender %q", value)
}

// PersonaStyle is the enumerated style preference domain.
type PersonaStyle string

const (
	PersonaStyleCasual  PersonaStyle = "casual"
	PersonaStyleFormal  PersonaStyle = "formal"
	PersonaStyleSporty  PersonaStyle = "sporty"
	PersonaStyleTrendy  PersonaStyle = "trendy"
	PersonaStyleVintage PersonaStyle = "vintage"
)

// PersonaStyles returns the full style domain in declaration order.
func PersonaStyles() []PersonaStyle {
	return []PersonaStyle{
		PersonaStyleCasual,
		PersonaStyleFormal,
		PersonaStyleSporty,
		PersonaStyleTrendy,
		PersonaStyleVintage,
	}
}

// IsValid reports whether the value is a known PersonaStyle.
func (s PersonaStyle) IsValid() bool {
	for _, candidate := range PersonaStyles() {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePersonaStyle converts raw input into a PersonaStyle.
func ParsePersonaStyle(value string) (PersonaStyle, error) {
	for _, candidate := range PersonaStyles() {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid persona style %q", value)
}

// ShoppingFrequency is how often the persona claims to shop.
type ShoppingFrequency string

const (
	ShoppingFrequencyWeekly       ShoppingFrequency = "weekly"
	ShoppingFrequencyMonthly      ShoppingFrequency = "monthly"
	ShoppingFrequencyOccasionally ShoppingFrequency = "occasionally"
)

// ShoppingFrequencies returns the full shopping frequency domain.
func ShoppingFrequencies() []ShoppingFrequency {
	return []ShoppingFrequency{
		ShoppingFrequencyWeekly,
		ShoppingFrequencyMonthly,
		ShoppingFrequencyOccasionally,
	}
}

// IsValid reports whether the value is a known ShoppingFrequency.
func (f ShoppingFrequency) IsValid() bool {
	for _, candidate := range ShoppingFrequencies() {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseShoppingFrequency converts raw input into a ShoppingFrequency.
func ParseShoppingFrequency(value string) (ShoppingFrequency, error) {
	for _, candidate := range ShoppingFrequencies() {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shopping frequency %q", value)
}

// BudgetTier is the persona spending bracket.
type BudgetTier string

const (
	BudgetTierLow    BudgetTier = "low"
	BudgetTierMedium BudgetTier = "medium"
	BudgetTierHigh   BudgetTier = "high"
)

// BudgetTiers returns the full budget domain.
func BudgetTiers() []BudgetTier {
	return []BudgetTier{BudgetTierLow, BudgetTierMedium, BudgetTierHigh}
}

// IsValid reports whether the value is a known BudgetTier.
func (b BudgetTier) IsValid() bool {
	for _, candidate := range BudgetTiers() {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBudgetTier converts raw input into a BudgetTier.
func ParseBudgetTier(value string) (BudgetTier, error) {
	for _, candidate := range BudgetTiers() {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid budget tier %q", value)
}

// FashionCategory is the catalog category domain shared by items and personas.
type FashionCategory string

const (
	FashionCategoryTops        FashionCategory = "tops"
	FashionCategoryBottoms     FashionCategory = "bottoms"
	FashionCategoryDresses     FashionCategory = "dresses"
	FashionCategoryShoes       FashionCategory = "shoes"
	FashionCategoryAccessories FashionCategory = "accessories"
	FashionCategoryOuterwear   FashionCategory = "outerwear"
)

// FashionCategories returns the full category domain in declaration order.
func FashionCategories() []FashionCategory {
	return []FashionCategory{
		FashionCategoryTops,
		FashionCategoryBottoms,
		FashionCategoryDresses,
		FashionCategoryShoes,
		FashionCategoryAccessories,
		FashionCategoryOuterwear,
	}
}

// IsValid reports whether the value is a known FashionCategory.
func (c FashionCategory) IsValid() bool {
	for _, candidate := range FashionCategories() {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseFashionCategory converts raw input into a FashionCategory.
func ParseFashionCategory(value string) (FashionCategory, error) {
	for _, candidate := range FashionCategories() {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fashion category %q", value)
}

// GenerationMethod records which path produced a persona.
type GenerationMethod string

const (
	GenerationMethodGenerative GenerationMethod = "generative"
	GenerationMethodFallback   GenerationMethod = "fallback"
)

// IsValid reports whether the value is a known GenerationMethod.
func (m GenerationMethod) IsValid() bool {
	return m == GenerationMethodGenerative || m == GenerationMethodFallback
}
