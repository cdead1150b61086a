package mission

import (
	"fmt"
	"time"

	"drone-follow/internal/config/components"
	"drone-follow/internal/models"
)

type Config struct {
	LeaderConnectTimeout   time.Duration
	FollowerConnectTimeout time.Duration
	FollowerRetryInterval  time.Duration
	StabilizeTimeout       time.Duration
	StabilizePoll          time.Duration
	StabilizeModes         []models.FlightMode
	StabilizeSamples       int
	HandoffModes           []models.FlightMode
	MinAltitude            float64
	TargetTimeout          time.Duration
	ClearDistance          float64
	ClearBearing           float64
	ClearSettle            time.Duration
	ArrivalRadius          float64
	ArrivalPoll            time.Duration
	FallbackAltitude       float64
	PositionTimeout        time.Duration
	CleanupTimeout         time.Duration
}

func ConfigFrom(m components.MissionConfigImpl, t components.TargetConfigImpl, f components.FollowConfigImpl) (Config, error) {
	stabilize, err := models.ParseFlightModes(m.StabilizeModes)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MISSION_STABILIZE_MODES: %w", err)
	}
	handoff, err := models.ParseFlightModes(m.HandoffModes)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MISSION_HANDOFF_MODES: %w", err)
	}

	return Config{
		LeaderConnectTimeout:   m.LeaderConnectTimeout,
		FollowerConnectTimeout: m.FollowerConnectTimeout,
		FollowerRetryInterval:  m.FollowerRetryInterval,
		StabilizeTimeout:       m.StabilizeTimeout,
		StabilizePoll:          m.StabilizePoll,
		StabilizeModes:         stabilize,
		StabilizeSamples:       m.StabilizeSamples,
		HandoffModes:           handoff,
		MinAltitude:            m.MinAltitude,
		TargetTimeout:          t.Timeout,
		ClearDistance:          m.ClearDistance,
		ClearBearing:           m.ClearBearing,
		ClearSettle:            m.ClearSettle,
		ArrivalRadius:          m.ArrivalRadius,
		ArrivalPoll:            m.ArrivalPoll,
		FallbackAltitude:       m.FallbackAltitude,
		PositionTimeout:        f.PositionTimeout,
		CleanupTimeout:         m.CleanupTimeout,
	}, nil
}

func (c Config) withDefaults() Config {
	if c.LeaderConnectTimeout <= 0 {
		c.LeaderConnectTimeout = 15 * time.Second
	}
	if c.FollowerConnectTimeout <= 0 {
		c.FollowerConnectTimeout = 50 * time.Second
	}
	if c.FollowerRetryInterval <= 0 {
		c.FollowerRetryInterval = 5 * time.Second
	}
	if c.StabilizeTimeout <= 0 {
		c.StabilizeTimeout = 60 * time.Second
	}
	if c.StabilizePoll <= 0 {
		c.StabilizePoll = time.Second
	}
	if c.StabilizeSamples <= 0 {
		c.StabilizeSamples = 3
	}
	if len(c.StabilizeModes) == 0 {
		c.StabilizeModes = []models.FlightMode{models.FlightModeHold}
	}
	if len(c.HandoffModes) == 0 {
		c.HandoffModes = []models.FlightMode{models.FlightModeHold, models.FlightModeLoiter}
	}
	if c.TargetTimeout <= 0 {
		c.TargetTimeout = 300 * time.Second
	}
	if c.ArrivalRadius <= 0 {
		c.ArrivalRadius = 2
	}
	if c.ArrivalPoll <= 0 {
		c.ArrivalPoll = time.Second
	}
	if c.FallbackAltitude <= 0 {
		c.FallbackAltitude = 15
	}
	if c.PositionTimeout <= 0 {
		c.PositionTimeout = 2 * time.Second
	}
	if c.CleanupTimeout <= 0 {
		c.CleanupTimeout = 5 * time.Second
	}
	return c
}
