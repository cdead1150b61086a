// Package targetfix receives the externally supplied target coordinate over a
// point-to-point ZeroMQ channel.
package targetfix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"

	"drone-follow/internal/models"
)

type Receiver interface {
	Receive(ctx context.Context, timeout time.Duration) (models.TargetFix, error)
}

// ZMQReceiver binds a PULL socket for each Receive and consumes exactly one
// message.
type ZMQReceiver struct {
	address string
	logger  zerolog.Logger
}

func NewZMQReceiver(address string, logger zerolog.Logger) *ZMQReceiver {
	return &ZMQReceiver{address: NormalizeAddress(address), logger: logger}
}

// NormalizeAddress rewrites the all-interfaces wildcard "tcp://*:port" into a
// form the Go listener accepts.
func NormalizeAddress(address string) string {
	if rest, ok := strings.CutPrefix(address, "tcp://*:"); ok {
		return "tcp://0.0.0.0:" + rest
	}
	return address
}

func (r *ZMQReceiver) Receive(ctx context.Context, timeout time.Duration) (models.TargetFix, error) {
	if err := ctx.Err(); err != nil {
		return models.TargetFix{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sock := zmq4.NewPull(ctx)
	defer sock.Close()

	if err := sock.Listen(r.address); err != nil {
		return models.TargetFix{}, fmt.Errorf("failed to bind target channel on %s: %w", r.address, err)
	}

	r.logger.Info().
		Str("address", r.address).
		Dur("timeout", timeout).
		Msg("Waiting for target fix")

	type result struct {
		msg zmq4.Msg
		err error
	}
	received := make(chan result, 1)
	go func() {
		msg, err := sock.Recv()
		received <- result{msg: msg, err: err}
	}()

	select {
	case res := <-received:
		if res.err != nil {
			if ctx.Err() != nil {
				return models.TargetFix{}, r.waitError(ctx, timeout)
			}
			return models.TargetFix{}, fmt.Errorf("failed to receive target fix: %w", res.err)
		}
		return r.accept(res.msg.Bytes())
	case <-ctx.Done():
		return models.TargetFix{}, r.waitError(ctx, timeout)
	}
}

func (r *ZMQReceiver) waitError(ctx context.Context, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.logger.Warn().Dur("timeout", timeout).Msg("Timed out waiting for target fix")
		return fmt.Errorf("%w within %s", ErrTimeout, timeout)
	}
	return ctx.Err()
}

func (r *ZMQReceiver) accept(payload []byte) (models.TargetFix, error) {
	fix, err := Parse(payload)
	if err != nil {
		r.logger.Error().Err(err).Str("payload", string(payload)).Msg("Rejected target fix")
		return models.TargetFix{}, err
	}

	r.logger.Info().
		Float64("latitude", fix.Latitude).
		Float64("longitude", fix.Longitude).
		Msg("Accepted target fix")
	return fix, nil
}

var _ Receiver = (*ZMQReceiver)(nil)
