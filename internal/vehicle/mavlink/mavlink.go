// Package mavlink drives a PX4 autopilot over MAVLink.
package mavlink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v2"
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v2/pkg/message"
	"github.com/rs/zerolog"

	"drone-follow/internal/models"
	"drone-follow/internal/vehicle"
)

const (
	gcsSystemID = 250
	fixMaxAge   = 2 * time.Second

	// MAV_DO_REPOSITION_FLAGS_CHANGE_MODE
	repositionChangeMode = 1
	// MAV_MOUNT_MODE_MAVLINK_TARGETING
	mountModeTargeting = 2
)

type Vehicle struct {
	opts   vehicle.Options
	logger zerolog.Logger
	now    func() time.Time

	// cmdMu keeps a single command in flight.
	cmdMu sync.Mutex

	mu          sync.Mutex
	node        *gomavlib.Node
	done        chan struct{}
	systemID    uint8
	componentID uint8
	heartbeatAt time.Time
	mode        models.FlightMode
	armed       bool
	landedState common.MAV_LANDED_STATE
	hasLanded   bool
	fix         *models.Position
	relativeAlt float64
	fixAt       time.Time
	acks        map[common.MAV_CMD]chan common.MAV_RESULT
	updates     chan struct{}
}

func New(opts vehicle.Options, logger zerolog.Logger) *Vehicle {
	return &Vehicle{
		opts:    opts.WithDefaults(),
		logger:  logger,
		now:     time.Now,
		acks:    make(map[common.MAV_CMD]chan common.MAV_RESULT),
		updates: make(chan struct{}),
	}
}

func (v *Vehicle) Name() string { return v.opts.Name }

// Connect opens the endpoint and waits for an autopilot heartbeat.
func (v *Vehicle) Connect(ctx context.Context) error {
	endpoint, err := ParseEndpoint(v.opts.Address)
	if err != nil {
		return vehicle.NewError(v.opts.Name, "connect", vehicle.ErrConnection, err)
	}

	err = vehicle.Retry(ctx, v.opts.ConnectAttempts, v.opts.ConnectDelay, func(ctx context.Context, attempt int) error {
		if err := v.open(endpoint); err != nil {
			v.logger.Warn().Err(err).Int("attempt", attempt).Str("address", v.opts.Address).Msg("Failed to open MAVLink endpoint")
			return err
		}
		err := v.waitFor(ctx, v.opts.CommandTimeout, func() bool { return !v.heartbeatAt.IsZero() })
		if err != nil {
			v.logger.Warn().Int("attempt", attempt).Msg("No autopilot heartbeat")
			v.close()
			return fmt.Errorf("no heartbeat: %w", err)
		}
		return nil
	})
	if err != nil {
		return vehicle.NewError(v.opts.Name, "connect", vehicle.ErrConnection, err)
	}

	v.mu.Lock()
	systemID := v.systemID
	v.mu.Unlock()

	v.logger.Info().
		Str("address", v.opts.Address).
		Uint8("system_id", systemID).
		Msg("Connected to autopilot")
	return nil
}

func (v *Vehicle) open(endpoint gomavlib.EndpointConf) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.node != nil {
		return nil
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   []gomavlib.EndpointConf{endpoint},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: gcsSystemID,
	})
	if err != nil {
		return err
	}

	v.node = node
	v.done = make(chan struct{})
	go v.readLoop(node, v.done)
	return nil
}

func (v *Vehicle) close() {
	v.mu.Lock()
	node, done := v.node, v.done
	v.node = nil
	v.heartbeatAt = time.Time{}
	v.mu.Unlock()

	if node == nil {
		return
	}
	node.Close()
	<-done
}

func (v *Vehicle) readLoop(node *gomavlib.Node, done chan struct{}) {
	defer close(done)
	for evt := range node.Events() {
		if frm, ok := evt.(*gomavlib.EventFrame); ok {
			v.handleMessage(frm.SystemID(), frm.ComponentID(), frm.Message())
		}
	}
}

func (v *Vehicle) handleMessage(systemID, componentID uint8, msg message.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		if m.Autopilot == common.MAV_AUTOPILOT_INVALID {
			return
		}
		if v.systemID == 0 {
			v.systemID, v.componentID = systemID, componentID
		}
		if systemID != v.systemID {
			return
		}
		v.heartbeatAt = v.now()
		v.mode = DecodeCustomMode(m.CustomMode)
		v.armed = m.BaseMode&common.MAV_MODE_FLAG_SAFETY_ARMED != 0

	case *common.MessageGlobalPositionInt:
		if systemID != v.systemID {
			return
		}
		v.fix = &models.Position{
			Latitude:  fromDegE7(m.Lat),
			Longitude: fromDegE7(m.Lon),
			Altitude:  float64(m.Alt) / 1000,
		}
		v.relativeAlt = float64(m.RelativeAlt) / 1000
		v.fixAt = v.now()

	case *common.MessageExtendedSysState:
		if systemID != v.systemID {
			return
		}
		v.landedState = m.LandedState
		v.hasLanded = true

	case *common.MessageCommandAck:
		if m.Result == common.MAV_RESULT_IN_PROGRESS {
			return
		}
		if ch, ok := v.acks[m.Command]; ok {
			select {
			case ch <- m.Result:
			default:
			}
		}

	default:
		return
	}

	close(v.updates)
	v.updates = make(chan struct{})
}

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

// Disconnect lands first when the flight mode is unknown.
func (v *Vehicle) Disconnect(ctx context.Context) error {
	v.mu.Lock()
	connected := v.node != nil
	unknown := v.mode == models.FlightModeUnknown && v.airborneLocked()
	v.mu.Unlock()

	if !connected {
		return nil
	}
	if unknown {
		if err := v.Land(ctx); err != nil {
			v.logger.Debug().Err(err).Msg("Land before disconnect failed")
		}
	}

	v.close()
	v.logger.Info().Msg("Disconnected from autopilot")
	return nil
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
	if v.node == nil {
		return models.Status{}, vehicle.NewError(v.opts.Name, "status", vehicle.ErrConnection, fmt.Errorf("not connected"))
	}
	return models.Status{
		Mode:             v.mode,
		Airborne:         v.airborneLocked(),
		RelativeAltitude: v.relativeAlt,
		UpdatedAt:        v.heartbeatAt,
	}, nil
}

// airborneLocked falls back to armed and off the ground when the autopilot
// does not stream EXTENDED_SYS_STATE.
func (v *Vehicle) airborneLocked() bool {
	if v.hasLanded {
		return isAirborne(v.landedState)
	}
	return v.armed && v.relativeAlt > 0.5
}

func (v *Vehicle) airborne() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.airborneLocked()
}

// command sends a command and waits for its acknowledgement.
func (v *Vehicle) command(ctx context.Context, op string, id common.MAV_CMD, msg message.Message) error {
	v.cmdMu.Lock()
	defer v.cmdMu.Unlock()

	ch := make(chan common.MAV_RESULT, 1)
	v.mu.Lock()
	node := v.node
	v.acks[id] = ch
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		delete(v.acks, id)
		v.mu.Unlock()
	}()

	if node == nil {
		return vehicle.NewError(v.opts.Name, op, vehicle.ErrConnection, fmt.Errorf("not connected"))
	}
	node.WriteMessageAll(msg)

	timer := time.NewTimer(v.opts.CommandTimeout)
	defer timer.Stop()

	select {
	case result := <-ch:
		if result != common.MAV_RESULT_ACCEPTED {
			return vehicle.NewError(v.opts.Name, op, vehicle.ErrCommand, fmt.Errorf("rejected with %v", result))
		}
		return nil
	case <-timer.C:
		return vehicle.NewError(v.opts.Name, op, vehicle.ErrTimeout, fmt.Errorf("no ack within %s", v.opts.CommandTimeout))
	case <-ctx.Done():
		return vehicle.NewError(v.opts.Name, op, vehicle.ErrTimeout, ctx.Err())
	}
}

func (v *Vehicle) commandLong(ctx context.Context, op string, id common.MAV_CMD, params ...float32) error {
	var p [7]float32
	copy(p[:], params)

	v.mu.Lock()
	sys, comp := v.systemID, v.componentID
	v.mu.Unlock()

	return v.command(ctx, op, id, &common.MessageCommandLong{
		TargetSystem:    sys,
		TargetComponent: comp,
		Command:         id,
		Param1:          p[0],
		Param2:          p[1],
		Param3:          p[2],
		Param4:          p[3],
		Param5:          p[4],
		Param6:          p[5],
		Param7:          p[6],
	})
}

func (v *Vehicle) GotoPosition(ctx context.Context, latitude, longitude, altitude float64) error {
	v.mu.Lock()
	sys, comp := v.systemID, v.componentID
	v.mu.Unlock()

	return v.command(ctx, "goto", common.MAV_CMD_DO_REPOSITION, &common.MessageCommandInt{
		TargetSystem:    sys,
		TargetComponent: comp,
		Frame:           common.MAV_FRAME_GLOBAL,
		Command:         common.MAV_CMD_DO_REPOSITION,
		Param1:          -1,
		Param2:          repositionChangeMode,
		Param4:          nan,
		X:               degE7(latitude),
		Y:               degE7(longitude),
		Z:               float32(altitude),
	})
}

func (v *Vehicle) Land(ctx context.Context) error {
	return v.commandLong(ctx, "land", common.MAV_CMD_NAV_LAND, 0, 0, 0, nan, nan, nan, nan)
}

func (v *Vehicle) Takeoff(ctx context.Context) error {
	if v.airborne() {
		v.logger.Debug().Msg("Takeoff skipped, already airborne")
		return nil
	}
	if err := v.commandLong(ctx, "arm", common.MAV_CMD_COMPONENT_ARM_DISARM, 1); err != nil {
		return err
	}
	return v.commandLong(ctx, "takeoff", common.MAV_CMD_NAV_TAKEOFF, -1, 0, 0, nan, nan, nan, nan)
}

func (v *Vehicle) Hold(ctx context.Context) error {
	p1, p2, p3 := holdModeParams()
	return v.commandLong(ctx, "hold", common.MAV_CMD_DO_SET_MODE, p1, p2, p3)
}

// SetMotionCommand streams MANUAL_CONTROL without waiting for an ack.
func (v *Vehicle) SetMotionCommand(ctx context.Context, cmd models.MotionCommand) error {
	v.mu.Lock()
	node, sys, airborne := v.node, v.systemID, v.airborneLocked()
	v.mu.Unlock()

	if !airborne {
		return nil
	}
	if node == nil {
		return vehicle.NewError(v.opts.Name, "motion", vehicle.ErrConnection, fmt.Errorf("not connected"))
	}

	node.WriteMessageAll(manualControl(sys, cmd))
	return nil
}

func (v *Vehicle) PrepareForRelease(ctx context.Context) error {
	return vehicle.Unsupported(v.opts.Name, "release")
}

func (v *Vehicle) SetCameraAngle(ctx context.Context, angle float64) error {
	return v.commandLong(ctx, "camera", common.MAV_CMD_DO_MOUNT_CONTROL, float32(angle), 0, 0, 0, 0, 0, mountModeTargeting)
}

var _ vehicle.Vehicle = (*Vehicle)(nil)
