package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	pkgerrors "github.com/helix-rec/helix-backend/pkg/errors"
)

const logisticModelType = "logistic_regression"

// LogisticModel scores rows with a standardized logistic regression loaded
// from a JSON artifact at service start.
type LogisticModel struct {
	FeatureNames []string  `json:"feature_names"`
	Bias         float64   `json:"bias"`
	Weights      []float64 `json:"weights"`
	Means        []float64 `json:"means"`
	Scales       []float64 `json:"scales"`
}

type modelArtifact struct {
	ModelType string `json:"model_type"`
	LogisticModel
}

// LoadLogisticModel reads and validates a model artifact from disk.
func LoadLogisticModel(path string) (*LogisticModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeScorerInvalid, err, "reading model artifact")
	}

	var artifact modelArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeScorerInvalid, err, "parsing model artifact")
	}
	if artifact.ModelType != logisticModelType {
		return nil, pkgerrors.New(pkgerrors.CodeScorerInvalid,
			fmt.Sprintf("unsupported model type %q", artifact.ModelType))
	}

	model := artifact.LogisticModel
	if err := model.validate(); err != nil {
		return nil, err
	}
	return &model, nil
}

func (m *LogisticModel) validate() error {
	if len(m.Weights) != RowWidth {
		return pkgerrors.New(pkgerrors.CodeScorerInvalid,
			fmt.Sprintf("expected %d weights, got %d", RowWidth, len(m.Weights)))
	}
	if len(m.Means) != RowWidth || len(m.Scales) != RowWidth {
		return pkgerrors.New(pkgerrors.CodeScorerInvalid, "means/scales width mismatch")
	}
	for i, scale := range m.Scales {
		if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
			return pkgerrors.New(pkgerrors.CodeScorerInvalid,
				fmt.Sprintf("invalid scale at column %d", i))
		}
	}
	for i, name := range m.FeatureNames {
		if i < len(FeatureNames) && name != FeatureNames[i] {
			return pkgerrors.New(pkgerrors.CodeScorerInvalid,
				fmt.Sprintf("feature column %d is %q, want %q", i, name, FeatureNames[i]))
		}
	}
	return nil
}

// Score returns one probability per row. Malformed rows (wrong width,
// NaN/Inf inputs) score NaN instead of failing the batch.
func (m *LogisticModel) Score(_ context.Context, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = m.scoreRow(row)
	}
	return out, nil
}

func (m *LogisticModel) scoreRow(row []float64) float64 {
	if len(row) != RowWidth {
		return math.NaN()
	}
	z := m.Bias
	for i, value := range row {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return math.NaN()
		}
		z += m.Weights[i] * (value - m.Means[i]) / m.Scales[i]
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
