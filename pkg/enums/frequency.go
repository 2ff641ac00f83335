package enums

import "fmt"

// PurchaseFrequency buckets how often a customer buys inside the feature window.
type PurchaseFrequency string

const (
	PurchaseFrequencyHigh   PurchaseFrequency = "high"
	PurchaseFrequencyMedium PurchaseFrequency = "medium"
	PurchaseFrequencyLow    PurchaseFrequency = "low"
)

var validPurchaseFrequencies = []PurchaseFrequency{
	PurchaseFrequencyHigh,
	PurchaseFrequencyMedium,
	PurchaseFrequencyLow,
}

// String implements fmt.Stringer.
func (f PurchaseFrequency) String() string {
	return string(f)
}

// IsValid reports whether the value is a known PurchaseFrequency.
func (f PurchaseFrequency) IsValid() bool {
	for _, candidate := range validPurchaseFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParsePurchaseFrequency converts raw input into a PurchaseFrequency.
func ParsePurchaseFrequency(value string) (PurchaseFrequency, error) {
	for _, candidate := range validPurchaseFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase frequency %q", value)
}

// BucketPurchaseCount maps a windowed purchase count onto a frequency bucket.
func BucketPurchaseCount(count int) PurchaseFrequency {
	switch {
	case count >= 10:
		return PurchaseFrequencyHigh
	case count >= 5:
		return PurchaseFrequencyMedium
	default:
		return PurchaseFrequencyLow
	}
}
