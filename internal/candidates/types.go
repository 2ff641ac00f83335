package candidates

import "github.com/helix-rec/helix-backend/pkg/enums"

// Candidate is one item under consideration before ranking. Produced fresh
// per request, never persisted.
type Candidate struct {
	ArticleID   string
	Source      enums.CandidateSource
	SourceScore float64
}

// MatrixStats describes the co-visitation structure currently being served.
type MatrixStats struct {
	Items     int
	Pairs     int
	BuiltFrom int
}
