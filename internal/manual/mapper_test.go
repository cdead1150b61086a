package manual

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-follow/internal/models"
	"drone-follow/internal/vehicle"
	"drone-follow/internal/vehicle/sim"
	"drone-follow/internal/vehicle/vehicletest"
)

func TestApplyDeadzoneBelowThreshold(t *testing.T) {
	for _, v := range []float64{0, 0.001, -0.014, 0.0149999} {
		assert.Zero(t, ApplyDeadzone(v, 0.015), "input %v", v)
	}
}

func TestApplyDeadzoneContinuousAtBoundary(t *testing.T) {
	dz := 0.015
	assert.Equal(t, 0.0, ApplyDeadzone(dz, dz))
	assert.InDelta(t, 0, ApplyDeadzone(dz+1e-9, dz), 1e-8)
	assert.InDelta(t, 0, ApplyDeadzone(-dz-1e-9, dz), 1e-8)
	assert.Equal(t, 1.0, ApplyDeadzone(1, dz))
	assert.Equal(t, -1.0, ApplyDeadzone(-1, dz))
	assert.InDelta(t, 0.5, ApplyDeadzone(0.5075, dz), 1e-9)
}

func TestSampleFromAxes(t *testing.T) {
	axes := AxisMap{Roll: 3, Pitch: 4, Yaw: 0, Throttle: 1}
	raw := []int{16384, -32767, 0, 32767, -40000}

	s := SampleFromAxes(raw, axes)
	assert.InDelta(t, 0.5, s.Yaw, 1e-4)
	assert.Equal(t, 1.0, s.Throttle)
	assert.Equal(t, 1.0, s.Roll)
	assert.Equal(t, 1.0, s.Pitch, "raw Y is inverted and clamped")

	assert.Zero(t, SampleFromAxes([]int{1, 2}, axes).Roll, "missing axis reads as rest")
}

func TestMapSigned(t *testing.T) {
	m := NewMapper(Config{Deadzone: 0.015}, zerolog.Nop())

	cmd := m.Map(Sample{Roll: 1, Pitch: -1, Yaw: 0.01, Throttle: 0.5075})
	assert.Equal(t, models.MotionCommand{Roll: 100, Pitch: -100, Yaw: 0, Throttle: 50}, cmd)
}

func TestCentredSticksMapToZero(t *testing.T) {
	m := NewMapper(Config{Deadzone: 0.015}, zerolog.Nop())

	assert.Equal(t, models.ZeroMotion, m.Map(Sample{}))
	assert.Equal(t, models.ZeroMotion, m.Map(Sample{Throttle: 0.01, Roll: -0.01}))
	assert.Equal(t, -100, m.Map(Sample{Throttle: -1}).Throttle)
}

type simClock struct{ now time.Time }

func (c *simClock) Now() time.Time { return c.now }

func TestFinalCommandHoldsSimAltitude(t *testing.T) {
	clk := &simClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	follower := sim.New(
		vehicle.Options{Name: "follower", ConnectDelay: time.Millisecond},
		sim.Config{Start: models.Position{Latitude: 10, Longitude: 20, Altitude: 20}, Now: clk.Now},
		zerolog.Nop(),
	)
	ctx := context.Background()
	require.NoError(t, follower.Connect(ctx))
	require.NoError(t, follower.SetMotionCommand(ctx, models.MotionCommand{Throttle: 60}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	m := NewMapper(Config{PollInterval: time.Millisecond}, zerolog.Nop())
	err := m.Run(cancelled, NewChannelSource(make(chan Sample)), follower)
	require.ErrorIs(t, err, context.Canceled)

	before, err := follower.GetPosition(ctx, time.Second)
	require.NoError(t, err)
	clk.now = clk.now.Add(10 * time.Second)
	after, err := follower.GetPosition(ctx, time.Second)
	require.NoError(t, err)

	assert.InDelta(t, before.Altitude, after.Altitude, 1e-9)
	assert.Equal(t, 20.0, after.Altitude)
}

func TestShouldEmit(t *testing.T) {
	m := NewMapper(Config{MinDelta: 2}, zerolog.Nop())

	first := models.MotionCommand{Pitch: 30}
	assert.True(t, m.ShouldEmit(first))
	m.last = &first

	assert.False(t, m.ShouldEmit(models.MotionCommand{Pitch: 32}))
	assert.True(t, m.ShouldEmit(models.MotionCommand{Pitch: 33}))
	assert.True(t, m.ShouldEmit(models.MotionCommand{Pitch: 30, Yaw: -3}))

	nearRest := models.MotionCommand{Pitch: 1}
	m.last = &nearRest
	assert.True(t, m.ShouldEmit(models.ZeroMotion), "returning exactly to rest always emits")

	m.last = &models.MotionCommand{}
	assert.False(t, m.ShouldEmit(models.ZeroMotion))
}

func TestRunEmitsThrottledCommands(t *testing.T) {
	follower := vehicletest.New("follower")
	samples := make(chan Sample, 8)
	samples <- Sample{Pitch: 0.3}
	samples <- Sample{Pitch: 0.31}
	samples <- Sample{Pitch: 0.6}
	samples <- Sample{Pitch: 0.0}
	close(samples)

	m := NewMapper(Config{MinDelta: 2, PollInterval: 5 * time.Millisecond}, zerolog.Nop())
	err := m.Run(context.Background(), NewChannelSource(samples), follower)
	require.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []models.MotionCommand{
		{Pitch: 30},
		{Pitch: 60},
		{},
		{},
	}, follower.Motions())
}

func TestRunSendsFinalZeroOnCancel(t *testing.T) {
	follower := vehicletest.New("follower")
	samples := make(chan Sample, 1)
	samples <- Sample{Roll: -0.8}

	m := NewMapper(Config{PollInterval: time.Millisecond}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, NewChannelSource(samples), follower) }()

	require.Eventually(t, func() bool { return len(follower.Motions()) == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("mapper did not exit")
	}

	last, ok := follower.LastMotion()
	require.True(t, ok)
	assert.True(t, last.IsZero())
}

func TestRunContinuesAfterCommandError(t *testing.T) {
	follower := vehicletest.New("follower")
	follower.FailOp(vehicletest.OpMotion, errors.New("link busy"))

	samples := make(chan Sample, 2)
	samples <- Sample{Yaw: 0.5}
	samples <- Sample{Yaw: 0.9}
	close(samples)

	m := NewMapper(Config{PollInterval: time.Millisecond}, zerolog.Nop())
	err := m.Run(context.Background(), NewChannelSource(samples), follower)

	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, follower.Count(vehicletest.OpMotion), "both samples plus the final zero command")
}
