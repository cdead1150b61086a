package follow

import (
	"time"

	"drone-follow/internal/config/components"
)

const (
	// SmoothingWeight is the share of the previous target kept each tick.
	SmoothingWeight = 0.3
	// SmoothingFreshness is how long a smoothed target may be blended with.
	SmoothingFreshness = 3 * time.Second
)

type Config struct {
	Distance        float64
	MinDistance     float64
	MaxDistance     float64
	AltitudeOffset  float64
	Interval        time.Duration
	PositionTimeout time.Duration
	RetryDelay      time.Duration
	MaxFailures     int
	LandWhenClose   bool
	CleanupTimeout  time.Duration
}

func ConfigFrom(c components.FollowConfigImpl) Config {
	return Config{
		Distance:        c.Distance,
		MinDistance:     c.MinDistance,
		MaxDistance:     c.MaxDistance,
		AltitudeOffset:  c.AltitudeOffset,
		Interval:        c.Interval,
		PositionTimeout: c.PositionTimeout,
		RetryDelay:      c.RetryDelay,
		MaxFailures:     c.MaxFailures,
		LandWhenClose:   c.TooClosePolicy == components.TooClosePolicyLand,
	}
}

func (c Config) withDefaults() Config {
	if c.Distance <= 0 {
		c.Distance = 20
	}
	if c.MinDistance <= 0 {
		c.MinDistance = 10
	}
	if c.MaxDistance <= 0 {
		c.MaxDistance = 30
	}
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.PositionTimeout <= 0 {
		c.PositionTimeout = 2 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 3
	}
	if c.CleanupTimeout <= 0 {
		c.CleanupTimeout = 5 * time.Second
	}
	return c
}
