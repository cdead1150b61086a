package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-follow/internal/config/shared"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mavlink", cfg.Vehicle.Leader.Backend)
	assert.Equal(t, "serial:///dev/ttyAMA0:57600", cfg.Vehicle.Leader.Address)
	assert.Equal(t, "udp://:14541", cfg.Vehicle.Follower.Address)
	assert.Equal(t, 20.0, cfg.Follow.Distance)
	assert.Equal(t, 10.0, cfg.Follow.MinDistance)
	assert.Equal(t, 30.0, cfg.Follow.MaxDistance)
	assert.Equal(t, 2.0, cfg.Follow.AltitudeOffset)
	assert.Equal(t, time.Second, cfg.Follow.Interval)
	assert.Equal(t, "stop", cfg.Follow.TooClosePolicy)
	assert.Equal(t, 15*time.Second, cfg.Mission.LeaderConnectTimeout)
	assert.Equal(t, 2.0, cfg.Mission.ArrivalRadius)
	assert.Equal(t, "tcp://*:5556", cfg.Target.BindAddress)
	assert.Equal(t, 300*time.Second, cfg.Target.Timeout)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "signed", cfg.Vehicle.Follower.ThrottleMode)
	assert.Equal(t, 3, cfg.Mission.StabilizeSamples)
}

func TestLoadVehicleThrottleMode(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FOLLOWER_THROTTLE_MODE", "UNSIGNED")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "unsigned", cfg.Vehicle.Follower.ThrottleMode)
	assert.Equal(t, "signed", cfg.Vehicle.Leader.ThrottleMode)

	t.Setenv("FOLLOWER_THROTTLE_MODE", "reversed")
	_, err = Load()
	assert.ErrorContains(t, err, "FOLLOWER_THROTTLE_MODE")
}

func TestLoadSignedAltitudeOffset(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FOLLOW_ALTITUDE_OFFSET", "-3.5")
	t.Setenv("MISSION_CLEAR_BEARING", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, -3.5, cfg.Follow.AltitudeOffset)
	assert.Equal(t, 0.0, cfg.Mission.ClearBearing)
}

func TestLoadRejectsInvertedDistances(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FOLLOW_MIN_DISTANCE", "25")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *shared.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "follow", cfgErr.Component)
	assert.Equal(t, "FOLLOW_DISTANCE", cfgErr.Field)
}

func TestLoadBridgeNeedsBroker(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FOLLOWER_BACKEND", "bridge")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("MQTT_ENABLED", "true")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEADER_BACKEND", "ardrone")

	_, err := Load()
	assert.ErrorContains(t, err, "LEADER_BACKEND")
}
