package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

// sampleModel scores urban drivers over 30 highest and adds a surcharge for
// vehicles older than ten years.
func sampleModel() *GBMRegressor {
	return &GBMRegressor{
		ModelType:    ModelTypeGBM,
		Columns:      append([]string(nil), FeatureNames[:]...),
		InitScore:    100,
		LearningRate: 0.5,
		Trees: []RegressionTree{
			{Nodes: []TreeNode{
				Split(0, 30, 1, 2),
				Leaf(2),
				Split(4, 0.5, 3, 4),
				Leaf(1),
				Leaf(3),
			}},
			{Nodes: []TreeNode{
				Split(1, 10, 1, 2),
				Leaf(0),
				Leaf(4),
			}},
		},
	}
}

func writeJSONModel(t *testing.T, model *GBMRegressor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, model.Save(path))
	return path
}

func writeYAMLModel(t *testing.T, model *GBMRegressor) string {
	t.Helper()
	payload, err := yaml.Marshal(model)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	return path
}

func writeSQLiteModel(t *testing.T, model *GBMRegressor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.db")
	require.NoError(t, WriteSQLite(path, model))
	return path
}
