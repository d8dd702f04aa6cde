package ml

// Model is a loaded regression model. Implementations are immutable after
// load and safe for concurrent use.
type Model interface {
	// Predict scores a batch of rows and returns one value per row.
	Predict(rows [][]float64) ([]float64, error)
}

// Schema is implemented by models that carry their training column order.
type Schema interface {
	FeatureNames() []string
}

// ModelInfo describes a loaded artifact.
type ModelInfo struct {
	Path         string   `json:"path"`
	ModelType    string   `json:"model_type"`
	FeatureNames []string `json:"feature_names"`
	Trees        int      `json:"trees"`
	LearningRate float64  `json:"learning_rate"`
	InitScore    float64  `json:"init_score"`
}

// Describe returns what is known about model. Path is left for the caller.
func Describe(model Model) ModelInfo {
	info := ModelInfo{ModelType: "unknown"}
	if s, ok := model.(Schema); ok {
		info.FeatureNames = s.FeatureNames()
	}
	if gbm, ok := model.(*GBMRegressor); ok {
		info.ModelType = gbm.ModelType
		info.Trees = len(gbm.Trees)
		info.LearningRate = gbm.LearningRate
		info.InitScore = gbm.InitScore
	}
	return info
}
