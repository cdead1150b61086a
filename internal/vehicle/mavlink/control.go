package mavlink

import (
	"math"

	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"

	"drone-follow/internal/models"
)

// manualControl scales percentages onto MANUAL_CONTROL's [-1000, 1000]
// axes. Thrust is [0, 1000] with 500 as neutral.
func manualControl(target uint8, cmd models.MotionCommand) *common.MessageManualControl {
	cmd = cmd.Clamp()
	return &common.MessageManualControl{
		Target: target,
		X:      int16(cmd.Pitch * 10),
		Y:      int16(cmd.Roll * 10),
		Z:      int16(500 + cmd.Throttle*5),
		R:      int16(cmd.Yaw * 10),
	}
}

func degE7(v float64) int32 {
	return int32(math.Round(v * 1e7))
}

func fromDegE7(v int32) float64 {
	return float64(v) / 1e7
}

var nan = float32(math.NaN())
