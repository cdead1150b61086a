package mavlink

import (
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"

	"drone-follow/internal/models"
)

// PX4 custom mode layout: main mode in bits 16-23, sub mode in bits 24-31.
const (
	px4MainManual     = 1
	px4MainAltctl     = 2
	px4MainPosctl     = 3
	px4MainAuto       = 4
	px4MainAcro       = 5
	px4MainOffboard   = 6
	px4MainStabilized = 7

	px4AutoTakeoff = 2
	px4AutoLoiter  = 3
	px4AutoMission = 4
	px4AutoRTL     = 5
	px4AutoLand    = 6
)

// DecodeCustomMode maps a PX4 heartbeat custom mode onto a FlightMode.
// AUTO.LOITER is PX4's Hold.
func DecodeCustomMode(custom uint32) models.FlightMode {
	mainMode := (custom >> 16) & 0xFF
	subMode := (custom >> 24) & 0xFF

	switch mainMode {
	case px4MainManual, px4MainAltctl, px4MainPosctl, px4MainAcro, px4MainStabilized:
		return models.FlightModeManual
	case px4MainOffboard:
		return models.FlightModeOffboard
	case px4MainAuto:
		switch subMode {
		case px4AutoTakeoff:
			return models.FlightModeTakingOff
		case px4AutoLoiter:
			return models.FlightModeHold
		case px4AutoMission:
			return models.FlightModeMission
		case px4AutoRTL:
			return models.FlightModeReturnToLaunch
		case px4AutoLand:
			return models.FlightModeLanding
		}
	}
	return models.FlightModeUnknown
}

func isAirborne(state common.MAV_LANDED_STATE) bool {
	switch state {
	case common.MAV_LANDED_STATE_IN_AIR, common.MAV_LANDED_STATE_TAKEOFF, common.MAV_LANDED_STATE_LANDING:
		return true
	}
	return false
}

// holdModeParams are DO_SET_MODE params selecting AUTO.LOITER.
func holdModeParams() (float32, float32, float32) {
	return 1, px4MainAuto, px4AutoLoiter
}
