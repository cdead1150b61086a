package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlightMode(t *testing.T) {
	cases := map[string]FlightMode{
		"hold":     FlightModeHold,
		" LOITER ": FlightModeLoiter,
		"hovering": FlightModeHold,
		"landed":   FlightModeLanded,
		"rtl":      FlightModeReturnToLaunch,
	}
	for in, want := range cases {
		got, err := ParseFlightMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFlightMode("sideways")
	assert.Error(t, err)
}

func TestParseFlightModes(t *testing.T) {
	modes, err := ParseFlightModes("HOLD, LOITER,")
	require.NoError(t, err)
	assert.Equal(t, []FlightMode{FlightModeHold, FlightModeLoiter}, modes)
}

func TestStatusInMode(t *testing.T) {
	s := Status{Mode: FlightModeLoiter}
	assert.True(t, s.InMode(FlightModeHold, FlightModeLoiter))
	assert.False(t, s.InMode(FlightModeHold))
}

func TestMotionCommandClamp(t *testing.T) {
	cmd := MotionCommand{Roll: 150, Pitch: -101, Yaw: 5, Throttle: 100}.Clamp()
	assert.Equal(t, MotionCommand{Roll: 100, Pitch: -100, Yaw: 5, Throttle: 100}, cmd)
	assert.True(t, ZeroMotion.IsZero())
	assert.False(t, cmd.IsZero())
}

func TestTargetFixValidate(t *testing.T) {
	assert.NoError(t, TargetFix{Latitude: 90, Longitude: -180}.Validate())
	assert.Error(t, TargetFix{Latitude: 95, Longitude: 10}.Validate())
	assert.Error(t, TargetFix{Latitude: 0, Longitude: 180.5}.Validate())
}

func TestSmoothedTargetFreshAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	target := &SmoothedTarget{Timestamp: now.Add(-2 * time.Second)}

	assert.True(t, target.FreshAt(now, 3*time.Second))
	assert.False(t, target.FreshAt(now.Add(time.Second), 3*time.Second))

	var missing *SmoothedTarget
	assert.False(t, missing.FreshAt(now, 3*time.Second))
}

func TestFollowSampleInfluxFields(t *testing.T) {
	sample := FollowSample{
		Leader:     "leader",
		Follower:   "follower",
		Outcome:    "moved",
		Separation: 12.5,
		Target:     &Position{Latitude: 1, Longitude: 2, Altitude: 3},
	}

	assert.Equal(t, "moved", sample.ToInfluxTags()["outcome"])
	fields := sample.ToInfluxFields()
	assert.Equal(t, 12.5, fields["separation"])
	assert.Equal(t, 3.0, fields["target_altitude"])
}
