package models

import (
	"fmt"
	"time"
)

// Position is a point-in-time vehicle location. Altitude is in meters in the
// frame reported by the backend.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%.7f, %.7f, %.1fm)", p.Latitude, p.Longitude, p.Altitude)
}

// TargetFix is an externally supplied coordinate consumed once by final positioning.
type TargetFix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (t TargetFix) Validate() error {
	if t.Latitude < -90 || t.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", t.Latitude)
	}
	if t.Longitude < -180 || t.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", t.Longitude)
	}
	return nil
}

// SmoothedTarget is the follow point blended across ticks.
type SmoothedTarget struct {
	Position
	Timestamp time.Time
}

// FreshAt reports whether the target is younger than maxAge at now.
func (s *SmoothedTarget) FreshAt(now time.Time, maxAge time.Duration) bool {
	if s == nil || s.Timestamp.IsZero() {
		return false
	}
	return now.Sub(s.Timestamp) < maxAge
}
