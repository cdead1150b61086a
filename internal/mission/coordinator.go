// Package mission sequences a leader/follower run through connection,
// stabilization, autonomous follow, manual handoff and final positioning.
package mission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"drone-follow/internal/follow"
	"drone-follow/internal/geodesy"
	"drone-follow/internal/manual"
	"drone-follow/internal/models"
	"drone-follow/internal/targetfix"
	"drone-follow/internal/vehicle"
)

var (
	ErrAborted        = errors.New("mission aborted")
	ErrAlreadyStarted = errors.New("mission already started")
)

// Observer is notified synchronously of every phase change.
type Observer interface {
	PhaseChanged(ctx context.Context, t Transition)
}

type Option func(*Coordinator)

func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observers = append(c.observers, o) }
}

// WithManualControl drives the follower from source during the handoff
// phase.
func WithManualControl(mapper *manual.Mapper, source manual.InputSource) Option {
	return func(c *Coordinator) {
		c.mapper = mapper
		c.input = source
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator runs a single mission.
type Coordinator struct {
	leader     vehicle.Vehicle
	follower   vehicle.Vehicle
	controller *follow.Controller
	receiver   targetfix.Receiver
	cfg        Config
	logger     zerolog.Logger
	observers  []Observer
	mapper     *manual.Mapper
	input      manual.InputSource
	now        func() time.Time

	started    atomic.Bool
	handoff    atomic.Bool
	handoffWhy atomic.Value

	mu    sync.Mutex
	phase Phase

	cleanupOnce sync.Once
}

func NewCoordinator(leader, follower vehicle.Vehicle, controller *follow.Controller, receiver targetfix.Receiver, cfg Config, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		leader:     leader,
		follower:   follower,
		controller: controller,
		receiver:   receiver,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// RequestHandoff asks the follow phase to end and hand control to the pilot.
// It reports false outside the follow phase.
func (c *Coordinator) RequestHandoff() bool {
	if c.Phase() != PhaseFollowing {
		return false
	}
	c.handoffWhy.Store("operator request")
	c.handoff.Store(true)
	c.logger.Info().Msg("Manual handoff requested")
	return true
}

// Run blocks until the mission is done or aborted. Every abort path runs the
// cleanup contract before Run returns an error wrapping ErrAborted.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	c.transition(ctx, PhaseConnecting, "", nil)
	if err := c.connect(ctx); err != nil {
		return c.abort(ctx, err)
	}

	c.transition(ctx, PhaseStabilizing, "", nil)
	if err := c.stabilize(ctx); err != nil {
		return c.abort(ctx, err)
	}

	c.transition(ctx, PhaseFollowing, "", nil)
	reason, err := c.runFollow(ctx)
	if err != nil {
		return c.abort(ctx, err)
	}

	c.transition(ctx, PhaseManualHandoff, reason, nil)
	fix, err := c.manualHandoff(ctx)
	if err != nil {
		return c.abort(ctx, err)
	}

	c.transition(ctx, PhaseFinalPositioning, "target fix accepted", &TargetPoint{Latitude: fix.Latitude, Longitude: fix.Longitude})
	if err := c.finalPosition(ctx, fix); err != nil {
		return c.abort(ctx, err)
	}

	c.transition(ctx, PhaseDone, "", nil)
	c.logger.Info().Msg("Mission complete")
	return nil
}

// Shutdown runs the cleanup contract. It is safe to call after Run returned.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.cleanup(ctx)
}

func (c *Coordinator) transition(ctx context.Context, to Phase, reason string, target *TargetPoint) {
	c.mu.Lock()
	from := c.phase
	c.phase = to
	c.mu.Unlock()

	t := Transition{
		Leader:   c.leader.Name(),
		Follower: c.follower.Name(),
		From:     from,
		To:       to,
		Reason:   reason,
		At:       c.now(),
		Target:   target,
	}

	event := c.logger.Info().Str("from", from.String()).Str("to", to.String())
	if reason != "" {
		event = event.Str("reason", reason)
	}
	event.Msg("Mission phase changed")

	observeCtx := context.WithoutCancel(ctx)
	for _, o := range c.observers {
		o.PhaseChanged(observeCtx, t)
	}
}

func (c *Coordinator) abort(ctx context.Context, cause error) error {
	phase := c.Phase()
	c.logger.Error().Err(cause).Str("phase", phase.String()).Msg("Mission aborted")

	c.transition(ctx, PhaseAborted, cause.Error(), nil)
	c.cleanup(ctx)
	return fmt.Errorf("%w in %s: %w", ErrAborted, phase, cause)
}

// cleanup stops the follower and disconnects both vehicles. Secondary errors
// are logged and swallowed.
func (c *Coordinator) cleanup(ctx context.Context) {
	c.cleanupOnce.Do(func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.CleanupTimeout)
		defer cancel()

		c.logger.Info().Msg("Cleaning up mission vehicles")
		if err := c.follower.SetMotionCommand(cleanupCtx, models.ZeroMotion); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to stop follower during cleanup")
		}
		if err := c.follower.Disconnect(cleanupCtx); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to disconnect follower")
		}
		if err := c.leader.Disconnect(cleanupCtx); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to disconnect leader")
		}
	})
}

func (c *Coordinator) connect(ctx context.Context) error {
	leaderCtx, cancel := context.WithTimeout(ctx, c.cfg.LeaderConnectTimeout)
	err := c.leader.Connect(leaderCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("leader not connected within %s: %w", c.cfg.LeaderConnectTimeout, err)
	}
	c.logger.Info().Str("vehicle", c.leader.Name()).Msg("Leader connected")

	followerCtx, cancel := context.WithTimeout(ctx, c.cfg.FollowerConnectTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		err := c.follower.Connect(followerCtx)
		if err == nil {
			c.logger.Info().Str("vehicle", c.follower.Name()).Int("attempt", attempt).Msg("Follower connected")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn().Err(err).Int("attempt", attempt).Msg("Follower connection failed, retrying")
		if sleepErr := vehicle.Sleep(followerCtx, c.cfg.FollowerRetryInterval); sleepErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("follower not connected within %s: %w", c.cfg.FollowerConnectTimeout, err)
		}
	}
}

func (c *Coordinator) stabilize(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.StabilizeTimeout)
	defer cancel()

	stable := 0
	for {
		status, err := c.follower.Status(waitCtx)
		switch {
		case err != nil:
			stable = 0
			c.logger.Debug().Err(err).Msg("Follower status unavailable")
		case status.InMode(c.cfg.StabilizeModes...) && status.RelativeAltitude > c.cfg.MinAltitude:
			stable++
			if stable >= c.cfg.StabilizeSamples {
				c.logger.Info().
					Str("mode", status.Mode.String()).
					Float64("relative_altitude", status.RelativeAltitude).
					Int("samples", stable).
					Msg("Follower stabilized")
				return nil
			}
		default:
			stable = 0
			c.logger.Debug().
				Str("mode", status.Mode.String()).
				Float64("relative_altitude", status.RelativeAltitude).
				Msg("Waiting for follower to stabilize")
		}

		if err := vehicle.Sleep(waitCtx, c.cfg.StabilizePoll); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("follower not stable within %s: %w", c.cfg.StabilizeTimeout, vehicle.ErrTimeout)
		}
	}
}

// runFollow runs the follow loop until a handoff is observed and returns the
// reason.
func (c *Coordinator) runFollow(ctx context.Context) (string, error) {
	c.controller.Reset()
	if err := c.controller.Run(ctx, c.handoffObserved); err != nil {
		return "", err
	}
	reason, _ := c.handoffWhy.Load().(string)
	return reason, nil
}

func (c *Coordinator) handoffObserved(ctx context.Context) bool {
	if c.handoff.Load() {
		return true
	}

	statusCtx, cancel := context.WithTimeout(ctx, c.cfg.PositionTimeout)
	defer cancel()
	status, err := c.leader.Status(statusCtx)
	if err != nil {
		return false
	}
	if status.InMode(c.cfg.HandoffModes...) {
		c.handoffWhy.Store(fmt.Sprintf("leader in %s", status.Mode))
		c.handoff.Store(true)
		return true
	}
	return false
}

func (c *Coordinator) manualHandoff(ctx context.Context) (models.TargetFix, error) {
	if err := c.leader.Hold(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to hold leader for handoff")
	}

	var manualDone chan error
	manualCtx, stopManual := context.WithCancel(ctx)
	defer stopManual()

	if c.mapper != nil && c.input != nil {
		manualDone = make(chan error, 1)
		go func() {
			manualDone <- c.mapper.Run(manualCtx, c.input, c.follower)
		}()
	}

	fix, err := c.receiver.Receive(ctx, c.cfg.TargetTimeout)

	stopManual()
	if manualDone != nil {
		if mErr := <-manualDone; mErr != nil && !errors.Is(mErr, context.Canceled) {
			c.logger.Warn().Err(mErr).Msg("Manual control ended with error")
		}
	}

	if err != nil {
		return models.TargetFix{}, fmt.Errorf("target fix: %w", err)
	}
	return fix, nil
}

func (c *Coordinator) finalPosition(ctx context.Context, fix models.TargetFix) error {
	if err := c.clearFollower(ctx); err != nil {
		return err
	}

	altitude := c.cfg.FallbackAltitude
	if pos, err := c.leader.GetPosition(ctx, c.cfg.PositionTimeout); err == nil {
		altitude = pos.Altitude
	} else {
		c.logger.Warn().Err(err).Float64("altitude", altitude).Msg("Leader altitude unavailable, using fallback")
	}

	c.logger.Info().
		Float64("latitude", fix.Latitude).
		Float64("longitude", fix.Longitude).
		Float64("altitude", altitude).
		Msg("Moving leader to target")
	if err := c.leader.GotoPosition(ctx, fix.Latitude, fix.Longitude, altitude); err != nil {
		return fmt.Errorf("leader goto target: %w", err)
	}

	for {
		pos, err := c.leader.GetPosition(ctx, c.cfg.PositionTimeout)
		if err == nil {
			remaining := geodesy.Inverse(pos.Latitude, pos.Longitude, fix.Latitude, fix.Longitude).Distance
			if remaining <= c.cfg.ArrivalRadius {
				c.logger.Info().Float64("distance", remaining).Msg("Leader arrived at target")
				if err := c.leader.Hold(ctx); err != nil {
					return fmt.Errorf("leader hold at target: %w", err)
				}
				return nil
			}
			c.logger.Debug().Float64("distance", remaining).Msg("Leader approaching target")
		}

		if err := vehicle.Sleep(ctx, c.cfg.ArrivalPoll); err != nil {
			return err
		}
	}
}

// clearFollower moves the follower away from the target area at its current
// altitude. A follower that cannot report or cannot goto is left in place.
func (c *Coordinator) clearFollower(ctx context.Context) error {
	pos, err := c.follower.GetPosition(ctx, c.cfg.PositionTimeout)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Follower position unavailable, not clearing target area")
		return nil
	}

	lat, lon := geodesy.Direct(pos.Latitude, pos.Longitude, c.cfg.ClearBearing, c.cfg.ClearDistance)
	if err := c.follower.GotoPosition(ctx, lat, lon, pos.Altitude); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to move follower clear of target area")
		return nil
	}

	c.logger.Info().
		Float64("distance", c.cfg.ClearDistance).
		Float64("bearing", c.cfg.ClearBearing).
		Msg("Follower clearing target area")
	return vehicle.Sleep(ctx, c.cfg.ClearSettle)
}
