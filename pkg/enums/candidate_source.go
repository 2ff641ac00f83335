package enums

import "fmt"

// CandidateSource records which retrieval strategy proposed an item.
type CandidateSource string

const (
	CandidateSourcePopularity   CandidateSource = "popularity"
	CandidateSourceCoVisitation CandidateSource = "co-visitation"
)

var validCandidateSources = []CandidateSource{
	CandidateSourcePopularity,
	CandidateSourceCoVisitation,
}

// String implements fmt.Stringer.
func (s CandidateSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CandidateSource.
func (s CandidateSource) IsValid() bool {
	for _, candidate := range validCandidateSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCandidateSource converts raw input into a CandidateSource.
func ParseCandidateSource(value string) (CandidateSource, error) {
	for _, candidate := range validCandidateSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid candidate source %q", value)
}
