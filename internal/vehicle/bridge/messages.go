package bridge

import (
	"encoding/json"
	"fmt"
)

// FixMessage is the GPS fix the bridge node publishes for its vehicle.
type FixMessage struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// StateMessage carries the vendor flying state ("landed", "hovering",
// "flying", ...). Airborne is optional and derived from State when absent.
type StateMessage struct {
	State            string   `json:"state"`
	Airborne         *bool    `json:"airborne,omitempty"`
	RelativeAltitude *float64 `json:"relative_altitude,omitempty"`
}

type CameraMessage struct {
	Tilt float64 `json:"tilt"`
}

// decode accepts either a bare payload or one wrapped in the {"data": ...}
// envelope used by the rest of the broker traffic.
func decode(payload []byte, v interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		payload = envelope.Data
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to decode bridge payload: %w", err)
	}
	return nil
}
