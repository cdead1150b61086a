// Package vehicletest provides a scripted vehicle for controller and
// coordinator tests.
package vehicletest

import (
	"context"
	"sync"
	"time"

	"drone-follow/internal/models"
	"drone-follow/internal/vehicle"
)

const (
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
	OpGoto       = "goto"
	OpLand       = "land"
	OpTakeoff    = "takeoff"
	OpHold       = "hold"
	OpMotion     = "motion"
	OpRelease    = "release"
	OpCamera     = "camera"
)

type Call struct {
	Op       string
	Motion   models.MotionCommand
	Target   models.Position
	Angle    float64
	Accepted bool
}

// Fake is safe for concurrent use. Zero-value errors mean success.
type Fake struct {
	name string

	mu            sync.Mutex
	calls         []Call
	position      models.Position
	positionErr   error
	positionFn    func(n int) (models.Position, error)
	positionCalls int
	status        models.Status
	statusFn      func(n int) (models.Status, error)
	statusCalls   int
	connectFn     func(n int) error
	connectCalls  int
	errs          map[string]error
	moveOnGoto    bool
	connected     bool
}

func New(name string) *Fake {
	return &Fake{
		name:   name,
		errs:   make(map[string]error),
		status: models.Status{Mode: models.FlightModeHold, Airborne: true, RelativeAltitude: 10},
	}
}

func (f *Fake) Name() string { return f.name }

func (f *Fake) SetPosition(lat, lon, alt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = models.Position{Latitude: lat, Longitude: lon, Altitude: alt}
	f.positionErr = nil
}

func (f *Fake) SetPositionError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positionErr = err
}

// SetPositionFunc scripts GetPosition by call number, starting at 1.
func (f *Fake) SetPositionFunc(fn func(n int) (models.Position, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positionFn = fn
}

func (f *Fake) SetStatus(status models.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// SetStatusFunc scripts Status by call number, starting at 1.
func (f *Fake) SetStatusFunc(fn func(n int) (models.Status, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusFn = fn
}

// SetConnectFunc scripts Connect by attempt number, starting at 1.
func (f *Fake) SetConnectFunc(fn func(n int) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectFn = fn
}

// FailOp makes every later call of op return err.
func (f *Fake) FailOp(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

// MoveOnGoto teleports the fake to every accepted goto target.
func (f *Fake) MoveOnGoto(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveOnGoto = enabled
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) Count(op string) int {
	return len(f.CallsOf(op))
}

func (f *Fake) Motions() []models.MotionCommand {
	var out []models.MotionCommand
	for _, c := range f.CallsOf(OpMotion) {
		out = append(out, c.Motion)
	}
	return out
}

func (f *Fake) LastMotion() (models.MotionCommand, bool) {
	motions := f.Motions()
	if len(motions) == 0 {
		return models.MotionCommand{}, false
	}
	return motions[len(motions)-1], true
}

func (f *Fake) Gotos() []models.Position {
	var out []models.Position
	for _, c := range f.CallsOf(OpGoto) {
		out = append(out, c.Target)
	}
	return out
}

func (f *Fake) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *Fake) record(c Call) error {
	err := f.errs[c.Op]
	c.Accepted = err == nil
	f.calls = append(f.calls, c)
	if err != nil {
		return vehicle.NewError(f.name, c.Op, kindOf(err), err)
	}
	return nil
}

func kindOf(err error) error {
	for _, kind := range []error{vehicle.ErrConnection, vehicle.ErrTimeout, vehicle.ErrUnsupported} {
		if err == kind {
			return kind
		}
	}
	return vehicle.ErrCommand
}

func (f *Fake) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connectCalls++
	var err error
	if f.connectFn != nil {
		err = f.connectFn(f.connectCalls)
	}
	f.calls = append(f.calls, Call{Op: OpConnect, Accepted: err == nil})
	if err != nil {
		return vehicle.NewError(f.name, OpConnect, vehicle.ErrConnection, err)
	}
	if ctx.Err() != nil {
		return vehicle.NewError(f.name, OpConnect, vehicle.ErrConnection, ctx.Err())
	}
	f.connected = true
	return nil
}

func (f *Fake) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpDisconnect, Accepted: true})
	f.connected = false
	return nil
}

func (f *Fake) GetPosition(ctx context.Context, timeout time.Duration) (models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.positionCalls++
	if f.positionFn != nil {
		return f.positionFn(f.positionCalls)
	}
	if f.positionErr != nil {
		return models.Position{}, vehicle.NewError(f.name, "position", vehicle.ErrTimeout, f.positionErr)
	}
	return f.position, nil
}

func (f *Fake) Status(ctx context.Context) (models.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.statusCalls++
	if f.statusFn != nil {
		return f.statusFn(f.statusCalls)
	}
	return f.status, nil
}

func (f *Fake) GotoPosition(ctx context.Context, latitude, longitude, altitude float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := models.Position{Latitude: latitude, Longitude: longitude, Altitude: altitude}
	if err := f.record(Call{Op: OpGoto, Target: target}); err != nil {
		return err
	}
	if f.moveOnGoto {
		f.position = target
	}
	return nil
}

func (f *Fake) Land(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: OpLand}); err != nil {
		return err
	}
	f.status.Airborne = false
	f.status.Mode = models.FlightModeLanded
	return nil
}

func (f *Fake) Takeoff(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: OpTakeoff}); err != nil {
		return err
	}
	f.status.Airborne = true
	return nil
}

func (f *Fake) Hold(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(Call{Op: OpHold})
}

func (f *Fake) SetMotionCommand(ctx context.Context, cmd models.MotionCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(Call{Op: OpMotion, Motion: cmd})
}

func (f *Fake) PrepareForRelease(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(Call{Op: OpRelease})
}

func (f *Fake) SetCameraAngle(ctx context.Context, angle float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(Call{Op: OpCamera, Angle: angle})
}

var _ vehicle.Vehicle = (*Fake)(nil)
