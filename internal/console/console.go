// Package console is the line-oriented operator surface. Each command maps to
// one coordinator or standalone component call.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	CommandFollow  = "follow"
	CommandRelease = "release"
	CommandManual  = "manual"
	CommandMission = "mission"
	CommandHandoff = "handoff"
	CommandStop    = "stop"
	CommandHelp    = "help"
	CommandExit    = "exit"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBusy           = errors.New("another operation is active")
	ErrNotRunning     = errors.New("no matching operation is active")
)

// Actions are the operations the console can start. Long-running operations
// must return once ctx is cancelled, after their own cleanup.
type Actions interface {
	Follow(ctx context.Context) error
	Release(ctx context.Context) error
	Manual(ctx context.Context) error
	Mission(ctx context.Context) error
	Handoff() bool
}

var help = []struct{ name, text string }{
	{CommandFollow, "start the follow loop on the leader/follower pair"},
	{CommandRelease, "prepare the follower for a hand release"},
	{CommandManual, "drive the follower from the game controller"},
	{CommandMission, "run the full mission state machine"},
	{CommandHandoff, "hand the running mission to the pilot"},
	{CommandStop, "cancel the active operation"},
	{CommandHelp, "show this help"},
	{CommandExit, "stop the active operation and quit"},
}

type operation struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

type Console struct {
	actions Actions
	out     io.Writer
	logger  zerolog.Logger

	outMu  sync.Mutex
	mu     sync.Mutex
	active *operation
}

func New(actions Actions, out io.Writer, logger zerolog.Logger) *Console {
	return &Console{actions: actions, out: out, logger: logger}
}

// Run reads commands from in until exit, end of input or ctx ends. The active
// operation is stopped before Run returns.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stopped:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	defer c.Stop()
	c.printf("Type '%s' for commands.\n", CommandHelp)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			exit, err := c.Execute(ctx, line)
			if err != nil {
				c.printf("error: %v\n", err)
			}
			if exit {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether the console should
// exit.
func (c *Console) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false, nil
	}

	switch name := fields[0]; name {
	case CommandFollow:
		return false, c.start(ctx, name, c.actions.Follow)
	case CommandRelease:
		return false, c.start(ctx, name, c.actions.Release)
	case CommandManual:
		return false, c.start(ctx, name, c.actions.Manual)
	case CommandMission:
		return false, c.start(ctx, name, c.actions.Mission)
	case CommandHandoff:
		if c.Active() != CommandMission || !c.actions.Handoff() {
			return false, fmt.Errorf("%w: handoff needs a mission in its follow phase", ErrNotRunning)
		}
		c.printf("handoff requested\n")
		return false, nil
	case CommandStop:
		if !c.Stop() {
			return false, ErrNotRunning
		}
		return false, nil
	case CommandHelp:
		c.printHelp()
		return false, nil
	case CommandExit, "quit":
		c.Stop()
		return true, nil
	default:
		return false, fmt.Errorf("%w %q", ErrUnknownCommand, name)
	}
}

// Active returns the name of the running operation, or "".
func (c *Console) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.name
}

// Stop cancels the active operation and waits for its cleanup. It reports
// whether an operation was running.
func (c *Console) Stop() bool {
	c.mu.Lock()
	op := c.active
	c.mu.Unlock()
	if op == nil {
		return false
	}

	op.cancel()
	<-op.done
	return true
}

// Wait blocks until the active operation, if any, returns.
func (c *Console) Wait() {
	c.mu.Lock()
	op := c.active
	c.mu.Unlock()
	if op != nil {
		<-op.done
	}
}

func (c *Console) start(ctx context.Context, name string, fn func(context.Context) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return fmt.Errorf("%w: %s", ErrBusy, c.active.name)
	}

	opCtx, cancel := context.WithCancel(ctx)
	op := &operation{name: name, cancel: cancel, done: make(chan struct{})}
	c.active = op
	c.printf("%s started\n", name)

	go func() {
		defer close(op.done)
		defer cancel()

		c.logger.Info().Str("operation", name).Msg("Operation started")
		err := fn(opCtx)

		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()

		switch {
		case err == nil:
			c.printf("%s finished\n", name)
		case errors.Is(err, context.Canceled):
			c.printf("%s stopped\n", name)
		default:
			c.logger.Error().Err(err).Str("operation", name).Msg("Operation failed")
			c.printf("%s failed: %v\n", name, err)
		}
	}()

	return nil
}

func (c *Console) printHelp() {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, h := range help {
		fmt.Fprintf(&b, "  %-8s %s\n", h.name, h.text)
	}
	c.printf("%s", b.String())
}

func (c *Console) printf(format string, args ...interface{}) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
