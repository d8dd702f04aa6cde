package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// DecodeFile reads an artifact, choosing the decoder by file extension.
func DecodeFile(path string) (Model, error) {
	var (
		model *GBMRegressor
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		model, err = decodeJSON(path)
	case ".yaml", ".yml":
		model, err = decodeYAML(path)
	case ".db", ".sqlite", ".sqlite3":
		model, err = ReadSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported model format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if model.ModelType == "" {
		model.ModelType = ModelTypeGBM
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

func decodeJSON(path string) (*GBMRegressor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// A misspelled key would otherwise leave its field zero and still
	// validate.
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	var model GBMRegressor
	if err := decoder.Decode(&model); err != nil {
		return nil, err
	}
	return &model, nil
}

func decodeYAML(path string) (*GBMRegressor, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var model GBMRegressor
	if err := yaml.UnmarshalStrict(payload, &model); err != nil {
		return nil, err
	}
	return &model, nil
}
