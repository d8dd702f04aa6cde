package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ModelTypeGBM is the model_type tag of a gradient boosted regressor artifact.
const ModelTypeGBM = "gbm_regressor"

// GBMRegressor is an exported gradient boosting regression model:
//
//	prediction = init_score + learning_rate * sum(tree(row))
type GBMRegressor struct {
	ModelType    string           `json:"model_type" yaml:"model_type"`
	Columns      []string         `json:"feature_names" yaml:"feature_names"`
	InitScore    float64          `json:"init_score" yaml:"init_score"`
	LearningRate float64          `json:"learning_rate" yaml:"learning_rate"`
	Trees        []RegressionTree `json:"trees" yaml:"trees"`
}

// FeatureNames returns a copy of the training column order.
func (m *GBMRegressor) FeatureNames() []string {
	return append([]string(nil), m.Columns...)
}

// Predict scores every row. A row whose width differs from the training
// schema is rejected rather than scored.
func (m *GBMRegressor) Predict(rows [][]float64) ([]float64, error) {
	out := make([]float64, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(m.Columns) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), len(m.Columns))
		}
		sum := 0.0
		for j := range m.Trees {
			v, err := m.Trees[j].predict(row)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", j, err)
			}
			sum += v
		}
		out = append(out, m.InitScore+m.LearningRate*sum)
	}
	return out, nil
}

// Validate checks that the artifact is structurally usable.
func (m *GBMRegressor) Validate() error {
	if m.ModelType != "" && m.ModelType != ModelTypeGBM {
		return fmt.Errorf("unsupported model type %q", m.ModelType)
	}
	if len(m.Columns) == 0 {
		return errors.New("feature_names is empty")
	}
	for i := range m.Trees {
		if err := m.Trees[i].validate(len(m.Columns)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Save writes the model as a JSON artifact.
func (m *GBMRegressor) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}
