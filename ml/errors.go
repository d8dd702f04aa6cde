package ml

import "errors"

var (
	// ErrModelNotFound is returned when the model artifact does not exist.
	ErrModelNotFound = errors.New("model file not found")
	// ErrModelLoad covers every other failure to read or decode an artifact.
	ErrModelLoad = errors.New("model load failed")
	// ErrInference is returned when the model rejects a feature row.
	ErrInference = errors.New("inference failed")
	// ErrInvalidLocation is returned for a garaging location outside Urban, Suburban, Rural.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrOutOfRange is returned when age or vehicle age is outside its bounds.
	ErrOutOfRange = errors.New("input out of range")
)
