// Package sim is an in-process kinematic vehicle used for dry runs and tests.
// State is integrated lazily whenever it is observed, so no goroutine runs
// behind it.
package sim

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"drone-follow/internal/geodesy"
	"drone-follow/internal/models"
	"drone-follow/internal/vehicle"
)

type Config struct {
	Start           models.Position
	Speed           float64 // m/s at full stick and for goto
	ClimbRate       float64 // m/s
	YawRate         float64 // deg/s at full stick
	TakeoffAltitude float64
	Now             func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Speed <= 0 {
		c.Speed = 5
	}
	if c.ClimbRate <= 0 {
		c.ClimbRate = 2
	}
	if c.YawRate <= 0 {
		c.YawRate = 45
	}
	if c.TakeoffAltitude <= 0 {
		c.TakeoffAltitude = 10
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// ParseAddress reads "sim://lat,lon,alt". A start altitude above zero
// starts the vehicle airborne in hold.
func ParseAddress(address string) (models.Position, error) {
	raw := strings.TrimPrefix(address, "sim://")
	if raw == "" {
		return models.Position{}, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return models.Position{}, fmt.Errorf("sim address %q must be lat,lon,alt", address)
	}

	var values [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.Position{}, fmt.Errorf("sim address %q: %w", address, err)
		}
		values[i] = v
	}

	pos := models.Position{Latitude: values[0], Longitude: values[1], Altitude: values[2]}
	fix := models.TargetFix{Latitude: pos.Latitude, Longitude: pos.Longitude}
	if err := fix.Validate(); err != nil {
		return models.Position{}, fmt.Errorf("sim address %q: %w", address, err)
	}
	return pos, nil
}

type Vehicle struct {
	opts   vehicle.Options
	cfg    Config
	logger zerolog.Logger

	mu          sync.Mutex
	connected   bool
	failConnect error
	pos         models.Position
	heading     float64
	mode        models.FlightMode
	airborne    bool
	goal        *models.Position
	climbTo     *float64
	motion      models.MotionCommand
	camera      float64
	updated     time.Time
}

func New(opts vehicle.Options, cfg Config, logger zerolog.Logger) *Vehicle {
	cfg = cfg.withDefaults()
	v := &Vehicle{
		opts:   opts.WithDefaults(),
		cfg:    cfg,
		logger: logger,
		pos:    cfg.Start,
		mode:   models.FlightModeLanded,
	}
	if cfg.Start.Altitude > 0 {
		v.airborne = true
		v.mode = models.FlightModeHold
	}
	return v
}

func (v *Vehicle) Name() string { return v.opts.Name }

// FailConnect makes every connect attempt fail with err until cleared.
func (v *Vehicle) FailConnect(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failConnect = err
}

// SetMode forces a flight mode, as a pilot switching modes on the radio.
func (v *Vehicle) SetMode(mode models.FlightMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advance()
	v.mode = mode
	v.goal = nil
	v.motion = models.ZeroMotion
}

func (v *Vehicle) CameraAngle() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera
}

func (v *Vehicle) Connect(ctx context.Context) error {
	err := vehicle.Retry(ctx, v.opts.ConnectAttempts, v.opts.ConnectDelay, func(ctx context.Context, attempt int) error {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.failConnect != nil {
			v.logger.Warn().Int("attempt", attempt).Err(v.failConnect).Msg("simulated connect failed")
			return v.failConnect
		}
		v.connected = true
		v.updated = v.cfg.Now()
		return nil
	})
	if err != nil {
		return vehicle.NewError(v.opts.Name, "connect", vehicle.ErrConnection, err)
	}

	v.logger.Info().Str("position", v.pos.String()).Msg("Simulated vehicle connected")
	return nil
}

func (v *Vehicle) Disconnect(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.connected {
		return nil
	}
	v.advance()
	if v.mode == models.FlightModeUnknown {
		v.land()
	}
	v.connected = false
	return nil
}

func (v *Vehicle) GetPosition(ctx context.Context, timeout time.Duration) (models.Position, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("position"); err != nil {
		return models.Position{}, err
	}
	v.advance()
	return v.pos, nil
}

func (v *Vehicle) Status(ctx context.Context) (models.Status, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("status"); err != nil {
		return models.Status{}, err
	}
	v.advance()
	return models.Status{
		Mode:             v.mode,
		Airborne:         v.airborne,
		RelativeAltitude: v.pos.Altitude,
		UpdatedAt:        v.updated,
	}, nil
}

func (v *Vehicle) GotoPosition(ctx context.Context, latitude, longitude, altitude float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("goto"); err != nil {
		return err
	}
	if !v.airborne {
		return vehicle.NewError(v.opts.Name, "goto", vehicle.ErrCommand, fmt.Errorf("not airborne"))
	}
	v.advance()
	v.goal = &models.Position{Latitude: latitude, Longitude: longitude, Altitude: altitude}
	v.climbTo = nil
	v.motion = models.ZeroMotion
	v.mode = models.FlightModeHold
	return nil
}

func (v *Vehicle) Land(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("land"); err != nil {
		return err
	}
	v.advance()
	v.land()
	return nil
}

func (v *Vehicle) land() {
	if !v.airborne {
		return
	}
	ground := 0.0
	v.goal = nil
	v.motion = models.ZeroMotion
	v.climbTo = &ground
	v.mode = models.FlightModeLanding
}

func (v *Vehicle) Takeoff(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("takeoff"); err != nil {
		return err
	}
	v.advance()
	if v.airborne {
		return nil
	}
	alt := v.cfg.TakeoffAltitude
	v.airborne = true
	v.climbTo = &alt
	v.mode = models.FlightModeTakingOff
	return nil
}

func (v *Vehicle) Hold(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("hold"); err != nil {
		return err
	}
	v.advance()
	if !v.airborne {
		return nil
	}
	v.goal = nil
	v.climbTo = nil
	v.motion = models.ZeroMotion
	v.mode = models.FlightModeHold
	return nil
}

func (v *Vehicle) SetMotionCommand(ctx context.Context, cmd models.MotionCommand) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("motion"); err != nil {
		return err
	}
	v.advance()
	if !v.airborne {
		return nil
	}
	v.motion = cmd.Clamp()
	if !v.motion.IsZero() {
		v.goal = nil
		v.climbTo = nil
		v.mode = models.FlightModeManual
	}
	return nil
}

func (v *Vehicle) PrepareForRelease(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("release"); err != nil {
		return err
	}
	v.advance()
	v.airborne = true
	if v.pos.Altitude <= 0 {
		v.pos.Altitude = v.cfg.TakeoffAltitude
	}
	v.goal = nil
	v.climbTo = nil
	v.mode = models.FlightModeHold
	return nil
}

func (v *Vehicle) SetCameraAngle(ctx context.Context, angle float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ready("camera"); err != nil {
		return err
	}
	v.camera = math.Max(-90, math.Min(90, angle))
	return nil
}

func (v *Vehicle) ready(op string) error {
	if !v.connected {
		return vehicle.NewError(v.opts.Name, op, vehicle.ErrConnection, fmt.Errorf("not connected"))
	}
	return nil
}

// advance integrates state up to now. Callers hold mu.
func (v *Vehicle) advance() {
	now := v.cfg.Now()
	dt := now.Sub(v.updated).Seconds()
	v.updated = now
	if dt <= 0 || !v.airborne {
		return
	}

	switch {
	case v.goal != nil:
		v.stepToward(*v.goal, dt)
	case !v.motion.IsZero():
		v.stepMotion(dt)
	}

	if v.climbTo != nil {
		v.pos.Altitude = approach(v.pos.Altitude, *v.climbTo, v.cfg.ClimbRate*dt)
		if v.pos.Altitude == *v.climbTo {
			v.climbTo = nil
			v.settle()
		}
	}
}

func (v *Vehicle) settle() {
	switch v.mode {
	case models.FlightModeTakingOff:
		v.mode = models.FlightModeHold
	case models.FlightModeLanding:
		v.airborne = false
		v.mode = models.FlightModeLanded
	}
}

func (v *Vehicle) stepToward(goal models.Position, dt float64) {
	inv := geodesy.Inverse(v.pos.Latitude, v.pos.Longitude, goal.Latitude, goal.Longitude)
	step := v.cfg.Speed * dt
	if inv.Distance <= step {
		v.pos.Latitude, v.pos.Longitude = goal.Latitude, goal.Longitude
	} else {
		v.pos.Latitude, v.pos.Longitude = geodesy.Direct(v.pos.Latitude, v.pos.Longitude, inv.InitialBearing, step)
		v.heading = inv.InitialBearing
	}
	v.pos.Altitude = approach(v.pos.Altitude, goal.Altitude, v.cfg.ClimbRate*dt)
}

func (v *Vehicle) stepMotion(dt float64) {
	v.heading = geodesy.NormalizeBearing(v.heading + float64(v.motion.Yaw)/100*v.cfg.YawRate*dt)

	forward := float64(v.motion.Pitch) / 100 * v.cfg.Speed * dt
	right := float64(v.motion.Roll) / 100 * v.cfg.Speed * dt
	if dist := math.Hypot(forward, right); dist > 0 {
		bearing := v.heading + math.Atan2(right, forward)*180/math.Pi
		v.pos.Latitude, v.pos.Longitude = geodesy.Direct(v.pos.Latitude, v.pos.Longitude, bearing, dist)
	}

	v.pos.Altitude = math.Max(0, v.pos.Altitude+float64(v.motion.Throttle)/100*v.cfg.ClimbRate*dt)
}

func approach(from, to, maxStep float64) float64 {
	if math.Abs(to-from) <= maxStep {
		return to
	}
	if to > from {
		return from + maxStep
	}
	return from - maxStep
}

var _ vehicle.Vehicle = (*Vehicle)(nil)
