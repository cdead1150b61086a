// Package manual maps analog controller input onto motion commands.
package manual

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"drone-follow/internal/config/components"
	"drone-follow/internal/models"
	"drone-follow/internal/vehicle"
)

type Config struct {
	Deadzone       float64
	MinDelta       int
	PollInterval   time.Duration
	CleanupTimeout time.Duration
}

func ConfigFrom(c components.ManualConfigImpl) Config {
	return Config{
		Deadzone:     c.Deadzone,
		MinDelta:     c.MinDelta,
		PollInterval: c.PollInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 20 * time.Millisecond
	}
	if c.CleanupTimeout <= 0 {
		c.CleanupTimeout = 5 * time.Second
	}
	return c
}

// ApplyDeadzone snaps magnitudes below dz to zero and rescales the rest so
// the output is continuous at the boundary and still reaches ±1.
func ApplyDeadzone(v, dz float64) float64 {
	mag := math.Abs(v)
	if mag < dz || mag == 0 {
		return 0
	}
	out := (mag - dz) / (1 - dz)
	if out > 1 {
		out = 1
	}
	return math.Copysign(out, v)
}

// Mapper is driven by a single goroutine.
type Mapper struct {
	cfg    Config
	logger zerolog.Logger
	last   *models.MotionCommand
}

func NewMapper(cfg Config, logger zerolog.Logger) *Mapper {
	return &Mapper{cfg: cfg.withDefaults(), logger: logger}
}

func (m *Mapper) Map(s Sample) models.MotionCommand {
	dz := m.cfg.Deadzone
	cmd := models.MotionCommand{
		Roll:     percent(ApplyDeadzone(s.Roll, dz)),
		Pitch:    percent(ApplyDeadzone(s.Pitch, dz)),
		Yaw:      percent(ApplyDeadzone(s.Yaw, dz)),
		Throttle: percent(ApplyDeadzone(s.Throttle, dz)),
	}
	return cmd.Clamp()
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}

// ShouldEmit reports whether cmd differs enough from the last emitted
// command: some axis moved by more than MinDelta or returned exactly to zero.
func (m *Mapper) ShouldEmit(cmd models.MotionCommand) bool {
	if m.last == nil {
		return true
	}
	last := *m.last

	axes := [][2]int{
		{cmd.Roll, last.Roll},
		{cmd.Pitch, last.Pitch},
		{cmd.Yaw, last.Yaw},
		{cmd.Throttle, last.Throttle},
	}
	for _, a := range axes {
		now, prev := a[0], a[1]
		if abs(now-prev) > m.cfg.MinDelta {
			return true
		}
		if now == 0 && prev != 0 {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Run pulls samples from source and drives target until ctx ends or the
// source fails. A final zero command is always sent before returning.
// Throttle is signed with 0 as neutral; backends apply their own offset.
func (m *Mapper) Run(ctx context.Context, source InputSource, target vehicle.Vehicle) error {
	m.last = nil
	m.logger.Info().Str("vehicle", target.Name()).Msg("Manual control started")

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.CleanupTimeout)
		defer cancel()
		if err := target.SetMotionCommand(cleanupCtx, models.ZeroMotion); err != nil {
			m.logger.Error().Err(err).Msg("Failed to send final manual command")
		}
		m.logger.Info().Msg("Manual control stopped")
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sample, err := source.Next(ctx, m.cfg.PollInterval)
		if errors.Is(err, ErrNoSample) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Error().Err(err).Msg("Manual input failed")
			return err
		}

		cmd := m.Map(sample)
		if !m.ShouldEmit(cmd) {
			continue
		}

		if err := target.SetMotionCommand(ctx, cmd); err != nil {
			m.logger.Error().Err(err).Str("command", cmd.String()).Msg("Failed to send manual command")
			continue
		}
		m.logger.Debug().Str("command", cmd.String()).Msg("Manual command sent")
		m.last = &cmd
	}
}
