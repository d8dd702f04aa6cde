package ml

import (
	"fmt"
	"strings"
)

// Location is the garaging location of the insured vehicle.
type Location string

const (
	Urban    Location = "Urban"
	Suburban Location = "Suburban"
	Rural    Location = "Rural"
)

// Locations lists the recognized locations in form display order.
var Locations = []Location{Urban, Suburban, Rural}

// Input bounds accepted by the encoder.
const (
	MinAge        = 18
	MaxAge        = 80
	MinVehicleAge = 1
	MaxVehicleAge = 20
)

// FeatureNames is the column order the model was trained on. Reordering it
// produces plausible but wrong premiums with no error, so Encode and the
// artifact schema check both depend on it.
var FeatureNames = [...]string{"age", "vehicle_age", "location_Rural", "location_Suburban", "location_Urban"}

// FeatureRow is one encoded row, laid out as FeatureNames.
type FeatureRow [len(FeatureNames)]float64

// Slice returns the row as a fresh slice for Model.Predict.
func (r FeatureRow) Slice() []float64 {
	return append([]float64(nil), r[:]...)
}

// Map returns the row keyed by column name.
func (r FeatureRow) Map() map[string]float64 {
	out := make(map[string]float64, len(r))
	for i, name := range FeatureNames {
		out[name] = r[i]
	}
	return out
}

// RiskInput holds the three rating factors collected by the form.
type RiskInput struct {
	Age        int      `json:"age"`
	VehicleAge int      `json:"vehicle_age"`
	Location   Location `json:"location"`
}

// DefaultRiskInput is the form's initial state.
func DefaultRiskInput() RiskInput {
	return RiskInput{Age: 40, VehicleAge: 5, Location: Urban}
}

// ParseLocation matches s against the known locations, ignoring case and
// surrounding space.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	for _, loc := range Locations {
		if strings.EqualFold(s, string(loc)) {
			return loc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLocation, s)
}

// Validate checks the bounds of both ages and the location.
func (in RiskInput) Validate() error {
	if in.Age < MinAge || in.Age > MaxAge {
		return fmt.Errorf("%w: age %d not in [%d,%d]", ErrOutOfRange, in.Age, MinAge, MaxAge)
	}
	if in.VehicleAge < MinVehicleAge || in.VehicleAge > MaxVehicleAge {
		return fmt.Errorf("%w: vehicle age %d not in [%d,%d]", ErrOutOfRange, in.VehicleAge, MinVehicleAge, MaxVehicleAge)
	}
	if _, err := ParseLocation(string(in.Location)); err != nil {
		return err
	}
	return nil
}

// Encode one-hot encodes the location and lays the row out as FeatureNames.
// All three location columns are emitted; exactly one of them is 1.
func Encode(in RiskInput) (FeatureRow, error) {
	if err := in.Validate(); err != nil {
		return FeatureRow{}, err
	}
	loc, _ := ParseLocation(string(in.Location))
	return FeatureRow{
		float64(in.Age),
		float64(in.VehicleAge),
		indicator(loc == Rural),
		indicator(loc == Suburban),
		indicator(loc == Urban),
	}, nil
}

func indicator(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

// CheckSchema reports an ErrModelLoad when model declares a column order
// different from FeatureNames. Models without a schema pass.
func CheckSchema(model Model) error {
	s, ok := model.(Schema)
	if !ok {
		return nil
	}
	names := s.FeatureNames()
	if len(names) != len(FeatureNames) {
		return fmt.Errorf("%w: model has %d features, encoder produces %d", ErrModelLoad, len(names), len(FeatureNames))
	}
	for i, name := range names {
		if name != FeatureNames[i] {
			return fmt.Errorf("%w: feature %d is %q, encoder produces %q", ErrModelLoad, i, name, FeatureNames[i])
		}
	}
	return nil
}
