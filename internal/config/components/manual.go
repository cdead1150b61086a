package components

import (
	"time"

	"drone-follow/internal/config/shared"
	"drone-follow/internal/interfaces"
)

type ManualConfig interface {
	interfaces.Config
}

type ManualConfigImpl struct {
	Device       int           `json:"device"`
	Deadzone     float64       `json:"deadzone"`
	MinDelta     int           `json:"min_delta"`
	PollInterval time.Duration `json:"poll_interval"`
	AxisRoll     int           `json:"axis_roll"`
	AxisPitch    int           `json:"axis_pitch"`
	AxisYaw      int           `json:"axis_yaw"`
	AxisThrottle int           `json:"axis_throttle"`
}

func NewManualConfig() ManualConfigImpl {
	config := ManualConfigImpl{}
	config.Load()
	config.SetDefaults()
	return config
}

func (M *ManualConfigImpl) Load() {
	M.Device = shared.GetEnvAsInt("MANUAL_DEVICE")
	M.Deadzone = shared.GetEnvAsFloat("MANUAL_DEADZONE", 0.015)
	M.MinDelta = int(shared.GetEnvAsFloat("MANUAL_MIN_DELTA", 2))
	M.PollInterval = shared.GetEnvAsDuration("MANUAL_POLL_INTERVAL")
	M.AxisRoll = int(shared.GetEnvAsFloat("MANUAL_AXIS_ROLL", 3))
	M.AxisPitch = int(shared.GetEnvAsFloat("MANUAL_AXIS_PITCH", 4))
	M.AxisYaw = int(shared.GetEnvAsFloat("MANUAL_AXIS_YAW", 0))
	M.AxisThrottle = int(shared.GetEnvAsFloat("MANUAL_AXIS_THROTTLE", 1))
}

func (M *ManualConfigImpl) SetDefaults() {
	if M.PollInterval <= 0 {
		M.PollInterval = 20 * time.Millisecond
	}
}

func (M *ManualConfigImpl) Validate() error {
	if M.Deadzone < 0 || M.Deadzone >= 1 {
		return shared.NewConfigError("manual", "MANUAL_DEADZONE", M.Deadzone, "must be in [0, 1)")
	}
	if M.MinDelta < 0 {
		return shared.NewConfigError("manual", "MANUAL_MIN_DELTA", M.MinDelta, "cannot be negative")
	}
	for field, axis := range map[string]int{
		"MANUAL_AXIS_ROLL":     M.AxisRoll,
		"MANUAL_AXIS_PITCH":    M.AxisPitch,
		"MANUAL_AXIS_YAW":      M.AxisYaw,
		"MANUAL_AXIS_THROTTLE": M.AxisThrottle,
	} {
		if axis < 0 {
			return shared.NewConfigError("manual", field, axis, "cannot be negative")
		}
	}
	return nil
}

var _ ManualConfig = (*ManualConfigImpl)(nil)
