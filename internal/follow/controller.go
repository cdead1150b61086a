// Package follow keeps a follower vehicle at a fixed geodesic offset from a
// leader.
package follow

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"drone-follow/internal/geodesy"
	"drone-follow/internal/models"
	"drone-follow/internal/vehicle"
)

type Outcome int

const (
	OutcomeMoved Outcome = iota
	OutcomeTooClose
	OutcomePositionFailure
	OutcomeFailSafe
	OutcomeCommandFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeTooClose:
		return "too_close"
	case OutcomePositionFailure:
		return "position_failure"
	case OutcomeFailSafe:
		return "fail_safe"
	case OutcomeCommandFailed:
		return "command_failed"
	}
	return "unknown"
}

// Recorder persists per-tick telemetry.
type Recorder interface {
	WriteFollowSample(ctx context.Context, sample models.FollowSample) error
}

// Metrics observes per-tick telemetry.
type Metrics interface {
	ObserveFollowSample(sample models.FollowSample)
}

// StopFunc is polled once per tick; returning true ends Run cleanly.
type StopFunc func(ctx context.Context) bool

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller is driven by a single goroutine.
type Controller struct {
	leader   vehicle.Vehicle
	follower vehicle.Vehicle
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
	recorder Recorder
	metrics  Metrics

	smoothed          *models.SmoothedTarget
	failures          int
	unsupportedWarned bool
}

func NewController(leader, follower vehicle.Vehicle, cfg Config, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		leader:   leader,
		follower: follower,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run ticks until ctx ends or stop returns true. The follower is always sent
// a zero motion command before Run returns.
func (c *Controller) Run(ctx context.Context, stop StopFunc) error {
	c.logger.Info().
		Float64("distance", c.cfg.Distance).
		Float64("min_distance", c.cfg.MinDistance).
		Float64("max_distance", c.cfg.MaxDistance).
		Float64("altitude_offset", c.cfg.AltitudeOffset).
		Msg("Follow loop started")

	defer c.stopFollower(ctx)

	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info().Msg("Follow loop cancelled, stopping follower")
			return err
		}
		if stop != nil && stop(ctx) {
			c.logger.Info().Msg("Follow loop stop condition reached")
			return nil
		}

		wait := c.cfg.Interval
		switch c.Step(ctx) {
		case OutcomePositionFailure, OutcomeFailSafe:
			wait = c.cfg.RetryDelay
		}

		if err := vehicle.Sleep(ctx, wait); err != nil {
			c.logger.Info().Msg("Follow loop cancelled, stopping follower")
			return err
		}
	}
}

func (c *Controller) stopFollower(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.CleanupTimeout)
	defer cancel()

	if err := c.follower.SetMotionCommand(cleanupCtx, models.ZeroMotion); err != nil {
		c.logger.Error().Err(err).Msg("Failed to stop follower")
	}
}

// Step runs a single tick. Vehicle errors are turned into a safe local
// action and never returned.
func (c *Controller) Step(ctx context.Context) Outcome {
	sample := models.FollowSample{
		Leader:    c.leader.Name(),
		Follower:  c.follower.Name(),
		Timestamp: c.now(),
	}

	outcome := c.step(ctx, &sample)
	sample.Outcome = outcome.String()

	if c.metrics != nil {
		c.metrics.ObserveFollowSample(sample)
	}
	if c.recorder != nil {
		if err := c.recorder.WriteFollowSample(ctx, sample); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to record follow sample")
		}
	}
	return outcome
}

func (c *Controller) step(ctx context.Context, sample *models.FollowSample) Outcome {
	leaderPos, err := c.leader.GetPosition(ctx, c.cfg.PositionTimeout)
	if err == nil {
		var followerPos models.Position
		followerPos, err = c.follower.GetPosition(ctx, c.cfg.PositionTimeout)
		if err == nil {
			c.failures = 0
			return c.position(ctx, leaderPos, followerPos, sample)
		}
	}

	c.failures++
	c.logger.Warn().Err(err).Int("failures", c.failures).Msg("Failed to get position")
	if c.failures < c.cfg.MaxFailures {
		return OutcomePositionFailure
	}

	c.logger.Warn().Msg("Multiple consecutive position failures, stopping follower")
	if err := c.follower.SetMotionCommand(ctx, models.ZeroMotion); err != nil {
		c.logger.Error().Err(err).Msg("Failed to stop follower")
	}
	return OutcomeFailSafe
}

func (c *Controller) position(ctx context.Context, leader, follower models.Position, sample *models.FollowSample) Outcome {
	inv := geodesy.Inverse(leader.Latitude, leader.Longitude, follower.Latitude, follower.Longitude)
	sample.Separation = inv.Distance
	sample.Bearing = inv.InitialBearing

	if inv.Distance < c.cfg.MinDistance {
		c.logger.Info().
			Float64("separation", inv.Distance).
			Float64("min_distance", c.cfg.MinDistance).
			Msg("Too close, stopping follower")
		c.tooClose(ctx)
		return OutcomeTooClose
	}

	distance := c.cfg.Distance
	if inv.Distance > c.cfg.MaxDistance {
		c.logger.Warn().
			Float64("separation", inv.Distance).
			Float64("max_distance", c.cfg.MaxDistance).
			Msg("Exceeded maximum distance")
		// Close at most half the maximum distance per tick.
		distance = max(0, inv.Distance-c.cfg.MaxDistance/2)
	}
	sample.EffectiveDistance = distance

	lat, lon := geodesy.FollowPoint(leader.Latitude, leader.Longitude, follower.Latitude, follower.Longitude, distance)
	target := c.smooth(models.Position{Latitude: lat, Longitude: lon, Altitude: leader.Altitude + c.cfg.AltitudeOffset})
	sample.Target = &target

	c.logger.Debug().
		Str("target", target.String()).
		Float64("separation", inv.Distance).
		Float64("bearing", inv.InitialBearing).
		Msg("Moving follower")

	err := c.follower.GotoPosition(ctx, target.Latitude, target.Longitude, target.Altitude)
	switch {
	case err == nil:
		return OutcomeMoved
	case errors.Is(err, vehicle.ErrUnsupported):
		if !c.unsupportedWarned {
			c.logger.Warn().Str("follower", c.follower.Name()).Msg("Follower backend cannot goto, follow loop is observing only")
			c.unsupportedWarned = true
		}
	default:
		c.logger.Error().Err(err).Msg("Failed to send goto command")
	}
	return OutcomeCommandFailed
}

func (c *Controller) tooClose(ctx context.Context) {
	if c.cfg.LandWhenClose {
		if err := c.follower.Land(ctx); err != nil {
			c.logger.Error().Err(err).Msg("Failed to land follower")
		}
		return
	}
	if err := c.follower.SetMotionCommand(ctx, models.ZeroMotion); err != nil {
		c.logger.Error().Err(err).Msg("Failed to stop follower")
	}
}

// smooth blends raw with the previous target while that target is fresh.
func (c *Controller) smooth(raw models.Position) models.Position {
	now := c.now()
	out := raw
	if c.smoothed.FreshAt(now, SmoothingFreshness) {
		prev := c.smoothed.Position
		out = models.Position{
			Latitude:  SmoothingWeight*prev.Latitude + (1-SmoothingWeight)*raw.Latitude,
			Longitude: SmoothingWeight*prev.Longitude + (1-SmoothingWeight)*raw.Longitude,
			Altitude:  SmoothingWeight*prev.Altitude + (1-SmoothingWeight)*raw.Altitude,
		}
	}
	c.smoothed = &models.SmoothedTarget{Position: out, Timestamp: now}
	return out
}

// Reset drops the smoothing state and the failure count.
func (c *Controller) Reset() {
	c.smoothed = nil
	c.failures = 0
}
