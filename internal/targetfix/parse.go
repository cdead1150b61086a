package targetfix

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"drone-follow/internal/models"
)

var (
	ErrValidation = errors.New("invalid target fix")
	ErrTimeout    = errors.New("no target fix received")
)

type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%v: %s %v: %s", ErrValidation, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type payload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Parse accepts exactly one JSON object holding numeric latitude and
// longitude. Anything else is a ValidationError.
func Parse(data []byte) (models.TargetFix, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return models.TargetFix{}, &ValidationError{Reason: fmt.Sprintf("malformed payload: %v", err)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return models.TargetFix{}, &ValidationError{Reason: "trailing data after object"}
	}

	if p.Latitude == nil {
		return models.TargetFix{}, &ValidationError{Field: "latitude", Reason: "is required"}
	}
	if p.Longitude == nil {
		return models.TargetFix{}, &ValidationError{Field: "longitude", Reason: "is required"}
	}

	lat, lon := *p.Latitude, *p.Longitude
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return models.TargetFix{}, &ValidationError{Field: "latitude", Value: lat, Reason: "out of range [-90, 90]"}
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return models.TargetFix{}, &ValidationError{Field: "longitude", Value: lon, Reason: "out of range [-180, 180]"}
	}

	return models.TargetFix{Latitude: lat, Longitude: lon}, nil
}
