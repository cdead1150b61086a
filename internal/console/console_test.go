package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeActions blocks every long-running operation until its context ends.
type fakeActions struct {
	mu       sync.Mutex
	started  []string
	stopped  []string
	handoffs int
	accept   bool
	failWith error
}

func (f *fakeActions) block(ctx context.Context, name string) error {
	f.mu.Lock()
	f.started = append(f.started, name)
	err := f.failWith
	f.mu.Unlock()
	if err != nil {
		return err
	}

	<-ctx.Done()
	f.mu.Lock()
	f.stopped = append(f.stopped, name)
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fakeActions) Follow(ctx context.Context) error  { return f.block(ctx, CommandFollow) }
func (f *fakeActions) Release(ctx context.Context) error { return f.block(ctx, CommandRelease) }
func (f *fakeActions) Manual(ctx context.Context) error  { return f.block(ctx, CommandManual) }
func (f *fakeActions) Mission(ctx context.Context) error { return f.block(ctx, CommandMission) }

func (f *fakeActions) Handoff() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handoffs++
	return f.accept
}

func (f *fakeActions) stoppedOps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stopped...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestOneOperationAtATime(t *testing.T) {
	actions := &fakeActions{}
	c := New(actions, &syncBuffer{}, zerolog.Nop())
	ctx := context.Background()

	_, err := c.Execute(ctx, "follow")
	require.NoError(t, err)
	assert.Equal(t, CommandFollow, c.Active())

	_, err = c.Execute(ctx, "manual")
	assert.ErrorIs(t, err, ErrBusy)

	_, err = c.Execute(ctx, "stop")
	require.NoError(t, err)
	assert.Equal(t, "", c.Active())
	assert.Equal(t, []string{CommandFollow}, actions.stoppedOps())

	_, err = c.Execute(ctx, " MANUAL ")
	require.NoError(t, err)
	assert.Equal(t, CommandManual, c.Active())
	c.Stop()
}

func TestStopWithoutOperation(t *testing.T) {
	c := New(&fakeActions{}, &syncBuffer{}, zerolog.Nop())
	_, err := c.Execute(context.Background(), "stop")
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestHandoffNeedsMission(t *testing.T) {
	actions := &fakeActions{accept: true}
	c := New(actions, &syncBuffer{}, zerolog.Nop())
	ctx := context.Background()

	_, err := c.Execute(ctx, "handoff")
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Equal(t, 0, actions.handoffs)

	_, err = c.Execute(ctx, "mission")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "handoff")
	require.NoError(t, err)
	assert.Equal(t, 1, actions.handoffs)

	actions.accept = false
	_, err = c.Execute(ctx, "handoff")
	assert.ErrorIs(t, err, ErrNotRunning)
	c.Stop()
}

func TestUnknownAndEmptyCommands(t *testing.T) {
	c := New(&fakeActions{}, &syncBuffer{}, zerolog.Nop())

	exit, err := c.Execute(context.Background(), "   ")
	assert.NoError(t, err)
	assert.False(t, exit)

	_, err = c.Execute(context.Background(), "barrel-roll")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestFailedOperationFreesSlot(t *testing.T) {
	actions := &fakeActions{failWith: errors.New("no heartbeat")}
	out := &syncBuffer{}
	c := New(actions, out, zerolog.Nop())

	_, err := c.Execute(context.Background(), "release")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.Active() == "" }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return strings.Contains(out.String(), "release failed: no heartbeat") }, time.Second, time.Millisecond)
}

func TestRunExitStopsActiveOperation(t *testing.T) {
	actions := &fakeActions{}
	out := &syncBuffer{}
	c := New(actions, out, zerolog.Nop())

	err := c.Run(context.Background(), strings.NewReader("help\nmission\nexit\nfollow\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{CommandMission}, actions.stoppedOps())
	assert.Contains(t, out.String(), "Commands:")
	assert.Contains(t, out.String(), "mission started")
	assert.NotContains(t, out.String(), "follow started")
}

func TestRunEndOfInputStops(t *testing.T) {
	actions := &fakeActions{}
	c := New(actions, &syncBuffer{}, zerolog.Nop())

	require.NoError(t, c.Run(context.Background(), strings.NewReader("follow\n")))
	assert.Equal(t, []string{CommandFollow}, actions.stoppedOps())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(&fakeActions{}, &syncBuffer{}, zerolog.Nop())
	reader, writer := io.Pipe()
	defer writer.Close()

	assert.ErrorIs(t, c.Run(ctx, reader), context.Canceled)
}
