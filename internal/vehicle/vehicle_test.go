package vehicle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("no heartbeat")
	err := fmt.Errorf("mission: %w", NewError("leader", "connect", ErrConnection, cause))

	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "mission: leader: connect: connection error: no heartbeat", err.Error())

	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "connect", vErr.Op)
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("bebop", "goto")

	assert.True(t, IsUnsupported(err))
	assert.Equal(t, "bebop: goto: unsupported operation", err.Error())
}

func TestRetryStopsOnSuccess(t *testing.T) {
	var calls int
	err := Retry(context.Background(), 5, time.Millisecond, func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("busy")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryReturnsLastError(t *testing.T) {
	var calls int
	err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context, attempt int) error {
		calls++
		return fmt.Errorf("attempt %d", attempt)
	})

	assert.EqualError(t, err, "attempt 3")
	assert.Equal(t, 3, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Retry(ctx, 10, time.Hour, func(ctx context.Context, attempt int) error {
		cancel()
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{Name: "follower"}.WithDefaults()

	assert.Equal(t, 3, opts.ConnectAttempts)
	assert.Equal(t, 2*time.Second, opts.ConnectDelay)
	assert.Equal(t, 15*time.Second, opts.ReleaseTimeout)
	assert.Equal(t, "follower", opts.Namespace)
}
