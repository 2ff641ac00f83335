package serving

import (
	"time"

	"github.com/google/uuid"
	"github.com/helix-rec/helix-backend/pkg/enums"
)

// Recommendation is one ranked item in a prediction.
type Recommendation struct {
	ArticleID string                `json:"article_id"`
	Score     float64               `json:"score"`
	Rank      int                   `json:"rank"`
	Source    enums.CandidateSource `json:"source"`
}

// Prediction is the full serving result for one customer.
type Prediction struct {
	CustomerID      string           `json:"customer_id"`
	Recommendations []Recommendation `json:"recommendations"`
	OptimalSendHour int              `json:"optimal_send_hour"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// BatchReport summarizes one batch inference run. Success rows and the
// failure ledger are persisted under RunID.
type BatchReport struct {
	RunID     uuid.UUID     `json:"run_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"-"`
}
