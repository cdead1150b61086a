package models

import (
	"fmt"
	"strings"
	"time"
)

type FlightMode int

const (
	FlightModeUnknown FlightMode = iota
	FlightModeLanded
	FlightModeTakingOff
	FlightModeHold
	FlightModeLoiter
	FlightModeMission
	FlightModeOffboard
	FlightModeManual
	FlightModeLanding
	FlightModeReturnToLaunch
	FlightModeEmergency
)

var flightModeNames = map[FlightMode]string{
	FlightModeUnknown:        "UNKNOWN",
	FlightModeLanded:         "LANDED",
	FlightModeTakingOff:      "TAKING_OFF",
	FlightModeHold:           "HOLD",
	FlightModeLoiter:         "LOITER",
	FlightModeMission:        "MISSION",
	FlightModeOffboard:       "OFFBOARD",
	FlightModeManual:         "MANUAL",
	FlightModeLanding:        "LANDING",
	FlightModeReturnToLaunch: "RETURN_TO_LAUNCH",
	FlightModeEmergency:      "EMERGENCY",
}

func (m FlightMode) String() string {
	if name, ok := flightModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("FlightMode(%d)", int(m))
}

// ParseFlightMode converts a mode name into a FlightMode. Unknown names map to
// FlightModeUnknown with an error.
func ParseFlightMode(value string) (FlightMode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	switch normalized {
	case "HOVERING":
		return FlightModeHold, nil
	case "FLYING":
		return FlightModeManual, nil
	case "TAKINGOFF", "MOTOR_RAMPING", "USERTAKEOFF":
		return FlightModeTakingOff, nil
	case "RTL":
		return FlightModeReturnToLaunch, nil
	}
	for mode, name := range flightModeNames {
		if name == normalized {
			return mode, nil
		}
	}
	return FlightModeUnknown, fmt.Errorf("unknown flight mode %q", value)
}

// ParseFlightModes parses a comma separated list of mode names.
func ParseFlightModes(value string) ([]FlightMode, error) {
	var modes []FlightMode
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		mode, err := ParseFlightMode(part)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

// Status is the flight state a backend reports on request.
type Status struct {
	Mode             FlightMode `json:"mode"`
	Airborne         bool       `json:"airborne"`
	RelativeAltitude float64    `json:"relative_altitude"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// InMode reports whether the status mode is one of modes.
func (s Status) InMode(modes ...FlightMode) bool {
	for _, m := range modes {
		if s.Mode == m {
			return true
		}
	}
	return false
}
