package manual

import (
	"context"
	"fmt"
	"time"

	"github.com/0xcafed00d/joystick"

	"drone-follow/internal/config/components"
	"drone-follow/internal/vehicle"
)

// Saturation is the magnitude of a fully deflected raw axis.
const Saturation = 32767

type AxisMap struct {
	Roll     int
	Pitch    int
	Yaw      int
	Throttle int
}

func AxisMapFrom(cfg components.ManualConfigImpl) AxisMap {
	return AxisMap{Roll: cfg.AxisRoll, Pitch: cfg.AxisPitch, Yaw: cfg.AxisYaw, Throttle: cfg.AxisThrottle}
}

// JoystickSource polls a gamepad. The device reports current axis state
// rather than events, so Next samples it once per wait.
type JoystickSource struct {
	js   joystick.Joystick
	axes AxisMap
}

func OpenJoystick(device int, axes AxisMap) (*JoystickSource, error) {
	js, err := joystick.Open(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open joystick %d: %w", device, err)
	}

	highest := max(axes.Roll, axes.Pitch, axes.Yaw, axes.Throttle)
	if js.AxisCount() <= highest {
		js.Close()
		return nil, fmt.Errorf("joystick %q has %d axes, axis %d is mapped", js.Name(), js.AxisCount(), highest)
	}

	return &JoystickSource{js: js, axes: axes}, nil
}

func (s *JoystickSource) Name() string { return s.js.Name() }

func (s *JoystickSource) Next(ctx context.Context, wait time.Duration) (Sample, error) {
	if err := vehicle.Sleep(ctx, wait); err != nil {
		return Sample{}, err
	}

	state, err := s.js.Read()
	if err != nil {
		return Sample{}, fmt.Errorf("failed to read joystick: %w", err)
	}
	return SampleFromAxes(state.AxisData, s.axes), nil
}

func (s *JoystickSource) Close() error {
	s.js.Close()
	return nil
}

// SampleFromAxes normalises raw axes. Stick Y axes report up as negative and
// are inverted.
func SampleFromAxes(raw []int, axes AxisMap) Sample {
	axis := func(i int) float64 {
		if i < 0 || i >= len(raw) {
			return 0
		}
		return normalise(raw[i])
	}
	return Sample{
		Roll:     axis(axes.Roll),
		Pitch:    -axis(axes.Pitch),
		Yaw:      axis(axes.Yaw),
		Throttle: -axis(axes.Throttle),
	}
}

func normalise(raw int) float64 {
	v := float64(raw) / Saturation
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
