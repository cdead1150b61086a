// Package bridge drives a vehicle whose flight SDK runs behind a robot
// middleware node that relays telemetry and commands over MQTT topics.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"drone-follow/internal/interfaces"
	"drone-follow/internal/models"
	"drone-follow/internal/vehicle"
)

const (
	CmdTakeoff       = "takeoff"
	CmdLand          = "land"
	CmdHold          = "hold"
	CmdMotion        = "pcmd"
	CmdCamera        = "camera"
	CmdRelease       = "release"
	CmdReleaseCancel = "release_cancel"

	fixMaxAge = 2 * time.Second
)

type Vehicle struct {
	opts   vehicle.Options
	client interfaces.IMqClient
	topics interfaces.ITopicManager
	logger zerolog.Logger
	now    func() time.Time

	mu         sync.Mutex
	subscribed bool
	fix        *models.Position
	fixAt      time.Time
	status     models.Status
	hasStatus  bool
	updates    chan struct{}
}

func New(opts vehicle.Options, client interfaces.IMqClient, topics interfaces.ITopicManager, logger zerolog.Logger) *Vehicle {
	return &Vehicle{
		opts:    opts.WithDefaults(),
		client:  client,
		topics:  topics,
		logger:  logger,
		now:     time.Now,
		updates: make(chan struct{}),
	}
}

func (v *Vehicle) Name() string { return v.opts.Name }

// Connect subscribes to the telemetry topics and waits for the first state
// or fix message on each attempt.
func (v *Vehicle) Connect(ctx context.Context) error {
	err := vehicle.Retry(ctx, v.opts.ConnectAttempts, v.opts.ConnectDelay, func(ctx context.Context, attempt int) error {
		if err := v.subscribe(); err != nil {
			v.logger.Warn().Err(err).Int("attempt", attempt).Msg("Bridge subscription failed")
			return err
		}
		return v.waitFor(ctx, v.opts.ConnectDelay, func() bool { return v.hasStatus || v.fix != nil })
	})
	if err != nil {
		return vehicle.NewError(v.opts.Name, "connect", vehicle.ErrConnection, err)
	}

	v.logger.Info().Str("namespace", v.opts.Namespace).Msg("Bridge vehicle connected")
	return nil
}

func (v *Vehicle) subscribe() error {
	v.mu.Lock()
	done := v.subscribed
	v.mu.Unlock()
	if done {
		return nil
	}

	if !v.client.IsConnected() {
		return fmt.Errorf("broker is not connected")
	}
	if err := v.client.Subscribe(v.topics.GetVehicleFixTopic(v.opts.Namespace), 1, v.handleFix); err != nil {
		return err
	}
	if err := v.client.Subscribe(v.topics.GetVehicleStateTopic(v.opts.Namespace), 1, v.handleState); err != nil {
		return err
	}

	v.mu.Lock()
	v.subscribed = true
	v.mu.Unlock()
	return nil
}

func (v *Vehicle) Disconnect(ctx context.Context) error {
	v.mu.Lock()
	subscribed := v.subscribed
	unknown := !v.hasStatus || v.status.Mode == models.FlightModeUnknown
	v.subscribed = false
	v.mu.Unlock()

	if !subscribed {
		return nil
	}

	if unknown {
		if err := v.publish(CmdLand, struct{}{}); err != nil {
			v.logger.Debug().Err(err).Msg("Land before disconnect failed")
		}
	}

	err := v.client.Unsubscribe(
		v.topics.GetVehicleFixTopic(v.opts.Namespace),
		v.topics.GetVehicleStateTopic(v.opts.Namespace),
	)
	if err != nil {
		v.logger.Debug().Err(err).Msg("Unsubscribe failed")
	}
	return nil
}

// ownTopic drops telemetry routed from another vehicle's namespace, which
// paho does when subscriptions on one connection overlap.
func (v *Vehicle) ownTopic(topic string) bool {
	ns, err := v.topics.ExtractVehicleNamespace(topic)
	if err != nil || ns != v.opts.Namespace {
		v.logger.Debug().Str("topic", topic).Msg("Ignoring telemetry for another vehicle")
		return false
	}
	return true
}

func (v *Vehicle) handleFix(_ mqtt.Client, msg mqtt.Message) {
	if !v.ownTopic(msg.Topic()) {
		return
	}

	var fix FixMessage
	if err := decode(msg.Payload(), &fix); err != nil {
		v.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropping malformed fix")
		return
	}

	v.mu.Lock()
	v.fix = &models.Position{Latitude: fix.Latitude, Longitude: fix.Longitude, Altitude: fix.Altitude}
	v.fixAt = v.now()
	v.notifyLocked()
	v.mu.Unlock()
}

func (v *Vehicle) handleState(_ mqtt.Client, msg mqtt.Message) {
	if !v.ownTopic(msg.Topic()) {
		return
	}

	var state StateMessage
	if err := decode(msg.Payload(), &state); err != nil {
		v.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropping malformed state")
		return
	}

	mode, err := models.ParseFlightMode(state.State)
	if err != nil {
		v.logger.Debug().Str("state", state.State).Msg("Unrecognised flying state")
	}

	airborne := mode != models.FlightModeLanded && mode != models.FlightModeUnknown && mode != models.FlightModeEmergency
	if state.Airborne != nil {
		airborne = *state.Airborne
	}

	v.mu.Lock()
	alt := v.status.RelativeAltitude
	if state.RelativeAltitude != nil {
		alt = *state.RelativeAltitude
	} else if v.fix != nil {
		alt = v.fix.Altitude
	}
	v.status = models.Status{Mode: mode, Airborne: airborne, RelativeAltitude: alt, UpdatedAt: v.now()}
	v.hasStatus = true
	v.notifyLocked()
	v.mu.Unlock()
}

// notifyLocked wakes every waiter. Callers hold mu.
func (v *Vehicle) notifyLocked() {
	close(v.updates)
	v.updates = make(chan struct{})
}

// waitFor blocks until cond holds, timeout passes or ctx ends. cond runs
// with mu held.
func (v *Vehicle) waitFor(ctx context.Context, timeout time.Duration, cond func() bool) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		v.mu.Lock()
		ok := cond()
		updates := v.updates
		v.mu.Unlock()
		if ok {
			return nil
		}

		select {
		case <-updates:
		case <-timer.C:
			return vehicle.ErrTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (v *Vehicle) GetPosition(ctx context.Context, timeout time.Duration) (models.Position, error) {
	var pos models.Position
	err := v.waitFor(ctx, timeout, func() bool {
		if v.fix == nil || v.now().Sub(v.fixAt) > fixMaxAge {
			return false
		}
		pos = *v.fix
		return true
	})
	if err != nil {
		return models.Position{}, vehicle.NewError(v.opts.Name, "position", vehicle.ErrTimeout, err)
	}
	return pos, nil
}

func (v *Vehicle) Status(ctx context.Context) (models.Status, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasStatus {
		return models.Status{Mode: models.FlightModeUnknown}, nil
	}
	return v.status, nil
}

func (v *Vehicle) airborne() (bool, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status.Airborne, v.hasStatus
}

func (v *Vehicle) publish(command string, payload interface{}) error {
	topic := v.topics.GetVehicleCommandTopic(v.opts.Namespace, command)
	if err := v.client.PublishCommand(topic, payload); err != nil {
		return vehicle.NewError(v.opts.Name, command, vehicle.ErrCommand, err)
	}
	return nil
}

func (v *Vehicle) GotoPosition(ctx context.Context, latitude, longitude, altitude float64) error {
	return vehicle.Unsupported(v.opts.Name, "goto")
}

func (v *Vehicle) Land(ctx context.Context) error {
	return v.publish(CmdLand, struct{}{})
}

func (v *Vehicle) Takeoff(ctx context.Context) error {
	if airborne, known := v.airborne(); known && airborne {
		v.logger.Debug().Msg("Takeoff skipped, already airborne")
		return nil
	}
	return v.publish(CmdTakeoff, struct{}{})
}

func (v *Vehicle) Hold(ctx context.Context) error {
	return v.publish(CmdHold, struct{}{})
}

func (v *Vehicle) SetMotionCommand(ctx context.Context, cmd models.MotionCommand) error {
	if airborne, known := v.airborne(); known && !airborne {
		return nil
	}
	return v.publish(CmdMotion, v.wireMotion(cmd))
}

// wireMotion applies the driver's throttle convention to a signed command.
func (v *Vehicle) wireMotion(cmd models.MotionCommand) models.MotionCommand {
	cmd = cmd.Clamp()
	if v.opts.UnsignedThrottle {
		cmd.Throttle = (cmd.Throttle + 100) / 2
	}
	return cmd
}

// PrepareForRelease arms the hand-release and waits for the vehicle to
// report hovering. On timeout the release is cancelled.
func (v *Vehicle) PrepareForRelease(ctx context.Context) error {
	if err := v.publish(CmdRelease, struct{}{}); err != nil {
		return err
	}

	err := v.waitFor(ctx, v.opts.ReleaseTimeout, func() bool {
		return v.hasStatus && v.status.Mode == models.FlightModeHold
	})
	if err == nil {
		v.logger.Info().Msg("Vehicle stabilised after release")
		return nil
	}

	if cancelErr := v.publish(CmdReleaseCancel, struct{}{}); cancelErr != nil {
		v.logger.Warn().Err(cancelErr).Msg("Failed to cancel release")
	}
	return vehicle.NewError(v.opts.Name, "release", vehicle.ErrTimeout, err)
}

func (v *Vehicle) SetCameraAngle(ctx context.Context, angle float64) error {
	return v.publish(CmdCamera, CameraMessage{Tilt: angle})
}

var _ vehicle.Vehicle = (*Vehicle)(nil)
