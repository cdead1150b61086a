package targetfix

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-follow/internal/models"
)

func TestParseAccepts(t *testing.T) {
	fix, err := Parse([]byte(`{"latitude": 48.8566, "longitude": 2.3522}`))
	require.NoError(t, err)
	assert.Equal(t, models.TargetFix{Latitude: 48.8566, Longitude: 2.3522}, fix)

	fix, err = Parse([]byte(` {"longitude":-180,"latitude":90}`))
	require.NoError(t, err)
	assert.Equal(t, 90.0, fix.Latitude)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"latitude out of range":  `{"latitude": 95, "longitude": 10}`,
		"longitude out of range": `{"latitude": 10, "longitude": 180.5}`,
		"missing longitude":      `{"latitude": 10}`,
		"missing latitude":       `{"longitude": 10}`,
		"string coordinate":      `{"latitude": "10", "longitude": 10}`,
		"null coordinate":        `{"latitude": null, "longitude": 10}`,
		"array":                  `[10, 20]`,
		"unknown field":          `{"latitude": 10, "longitude": 20, "altitude": 5}`,
		"trailing data":          `{"latitude": 10, "longitude": 20} {}`,
		"not json":               `lat=10`,
		"empty":                  ``,
	}

	for name, payload := range cases {
		_, err := Parse([]byte(payload))
		assert.ErrorIs(t, err, ErrValidation, name)
	}
}

func TestParseReportsField(t *testing.T) {
	_, err := Parse([]byte(`{"latitude": 95, "longitude": 10}`))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "latitude", verr.Field)
	assert.Equal(t, 95.0, verr.Value)
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "tcp://0.0.0.0:5555", NormalizeAddress("tcp://*:5555"))
	assert.Equal(t, "tcp://127.0.0.1:5555", NormalizeAddress("tcp://127.0.0.1:5555"))
	assert.Equal(t, "ipc:///tmp/target", NormalizeAddress("ipc:///tmp/target"))
}

func TestReceiveRoundTrip(t *testing.T) {
	address := freeAddress(t)
	receiver := NewZMQReceiver(address, zerolog.Nop())

	type result struct {
		fix models.TargetFix
		err error
	}
	done := make(chan result, 1)
	go func() {
		fix, err := receiver.Receive(context.Background(), 5*time.Second)
		done <- result{fix, err}
	}()

	push := zmq4.NewPush(context.Background())
	defer push.Close()
	require.NoError(t, push.Dial(address))
	require.NoError(t, push.Send(zmq4.NewMsgString(`{"latitude": 10.5, "longitude": -20.25}`)))

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, models.TargetFix{Latitude: 10.5, Longitude: -20.25}, res.fix)
	case <-time.After(6 * time.Second):
		t.Fatal("receiver did not return")
	}
}

func TestReceiveTimeout(t *testing.T) {
	receiver := NewZMQReceiver(freeAddress(t), zerolog.Nop())

	start := time.Now()
	_, err := receiver.Receive(context.Background(), 100*time.Millisecond)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestReceiveCancelled(t *testing.T) {
	receiver := NewZMQReceiver(freeAddress(t), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := receiver.Receive(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return fmt.Sprintf("tcp://127.0.0.1:%d", port)
}
