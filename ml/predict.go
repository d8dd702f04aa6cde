package ml

import (
	"errors"
	"fmt"
	"math"
)

// Predict runs model on a single-row batch holding row and returns the
// only result. Every failure is reported as ErrInference.
func Predict(model Model, row FeatureRow) (float64, error) {
	if model == nil {
		return 0, fmt.Errorf("%w: no model loaded", ErrInference)
	}
	out, err := model.Predict([][]float64{row.Slice()})
	if err != nil {
		if errors.Is(err, ErrInference) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("%w: model returned no predictions", ErrInference)
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		return 0, fmt.Errorf("%w: model returned %v", ErrInference, out[0])
	}
	return out[0], nil
}
