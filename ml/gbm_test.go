package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactFormatsAgree(t *testing.T) {
	want := sampleModel()
	paths := map[string]string{
		"json":   writeJSONModel(t, want),
		"yaml":   writeYAMLModel(t, want),
		"sqlite": writeSQLiteModel(t, want),
	}
	row, err := Encode(RiskInput{Age: 40, VehicleAge: 15, Location: Urban})
	require.NoError(t, err)

	for format, path := range paths {
		t.Run(format, func(t *testing.T) {
			model, err := DecodeFile(path)
			require.NoError(t, err)

			gbm, ok := model.(*GBMRegressor)
			require.True(t, ok)
			assert.Equal(t, want.Columns, gbm.FeatureNames())
			assert.Equal(t, want.Trees, gbm.Trees)

			got, err := Predict(model, row)
			require.NoError(t, err)
			assert.InDelta(t, 103.5, got, 1e-9)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GBMRegressor)
	}{
		{"no features", func(m *GBMRegressor) { m.Columns = nil }},
		{"wrong type", func(m *GBMRegressor) { m.ModelType = "random_forest" }},
		{"empty tree", func(m *GBMRegressor) { m.Trees[1].Nodes = nil }},
		{"feature index", func(m *GBMRegressor) { m.Trees[0].Nodes[0].FeatureIdx = 9 }},
		{"child points backwards", func(m *GBMRegressor) { m.Trees[0].Nodes[2].LeftChild = 1 }},
		{"child past end", func(m *GBMRegressor) { m.Trees[1].Nodes[0].RightChild = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := sampleModel()
			tt.mutate(model)
			assert.Error(t, model.Validate())
		})
	}
	assert.NoError(t, sampleModel().Validate())
}

func TestDescribe(t *testing.T) {
	info := Describe(sampleModel())
	assert.Equal(t, ModelTypeGBM, info.ModelType)
	assert.Equal(t, 2, info.Trees)
	assert.Equal(t, FeatureNames[:], info.FeatureNames)

	assert.Equal(t, "unknown", Describe(constModel(1)).ModelType)
}
