package models

import "fmt"

const (
	MotionMin = -100
	MotionMax = 100
)

// MotionCommand is a direct roll/pitch/yaw/throttle input, each a signed
// percentage. Backends using an unsigned throttle expect [0, 100].
type MotionCommand struct {
	Roll     int `json:"roll"`
	Pitch    int `json:"pitch"`
	Yaw      int `json:"yaw"`
	Throttle int `json:"throttle"`
}

// ZeroMotion is the stop command.
var ZeroMotion = MotionCommand{}

func (m MotionCommand) IsZero() bool {
	return m == ZeroMotion
}

// Clamp limits every axis to [-100, 100].
func (m MotionCommand) Clamp() MotionCommand {
	return MotionCommand{
		Roll:     clampPercent(m.Roll),
		Pitch:    clampPercent(m.Pitch),
		Yaw:      clampPercent(m.Yaw),
		Throttle: clampPercent(m.Throttle),
	}
}

func (m MotionCommand) String() string {
	return fmt.Sprintf("roll=%d pitch=%d yaw=%d throttle=%d", m.Roll, m.Pitch, m.Yaw, m.Throttle)
}

func clampPercent(v int) int {
	if v < MotionMin {
		return MotionMin
	}
	if v > MotionMax {
		return MotionMax
	}
	return v
}
