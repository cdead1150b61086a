// Package vehicle defines the command contract every flight backend adapter
// satisfies, so the follow controller and the mission coordinator never
// branch on vehicle type.
package vehicle

import (
	"context"
	"time"

	"drone-follow/internal/models"
)

type Vehicle interface {
	Name() string

	// Connect retries internally with a bounded attempt count and a fixed
	// delay. It never blocks past ctx.
	Connect(ctx context.Context) error

	// Disconnect is safe to call repeatedly. It lands first when the flight
	// state is unknown and swallows sub-errors.
	Disconnect(ctx context.Context) error

	// GetPosition must not block past timeout.
	GetPosition(ctx context.Context, timeout time.Duration) (models.Position, error)
	Status(ctx context.Context) (models.Status, error)

	GotoPosition(ctx context.Context, latitude, longitude, altitude float64) error
	Land(ctx context.Context) error

	// Takeoff on an airborne vehicle is a no-op.
	Takeoff(ctx context.Context) error
	Hold(ctx context.Context) error

	// SetMotionCommand is inert when the vehicle is not airborne.
	SetMotionCommand(ctx context.Context, cmd models.MotionCommand) error

	// PrepareForRelease arms a hand-release and waits for a stable hover,
	// failing with ErrTimeout after the backend's release window.
	PrepareForRelease(ctx context.Context) error
	SetCameraAngle(ctx context.Context, angle float64) error
}

// Options are the per-vehicle connection settings shared by all backends.
type Options struct {
	Name            string
	Address         string
	Namespace       string
	ConnectAttempts int
	ConnectDelay    time.Duration
	ReleaseTimeout  time.Duration
	CommandTimeout  time.Duration

	// UnsignedThrottle makes a backend publish throttle on [0, 100] with 50
	// as neutral.
	UnsignedThrottle bool
}

func (o Options) WithDefaults() Options {
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = 3
	}
	if o.ConnectDelay <= 0 {
		o.ConnectDelay = 2 * time.Second
	}
	if o.ReleaseTimeout <= 0 {
		o.ReleaseTimeout = 15 * time.Second
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = 5 * time.Second
	}
	if o.Namespace == "" {
		o.Namespace = o.Name
	}
	return o
}
