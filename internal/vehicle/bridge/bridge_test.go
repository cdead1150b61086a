package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-follow/internal/models"
	"drone-follow/internal/mq"
	"drone-follow/internal/vehicle"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return true }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic string
	data  interface{}
}

type fakeBroker struct {
	mu        sync.Mutex
	handlers  map[string]mqtt.MessageHandler
	retained  map[string][]byte
	published []published
	onPublish func(topic string)
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: map[string]mqtt.MessageHandler{}, retained: map[string][]byte{}}
}

func (b *fakeBroker) Connect(ctx context.Context) error { return nil }
func (b *fakeBroker) Disconnect(ctx context.Context)    {}
func (b *fakeBroker) IsConnected() bool                 { return true }

func (b *fakeBroker) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	b.mu.Lock()
	b.handlers[topic] = handler
	payload, ok := b.retained[topic]
	b.mu.Unlock()
	if ok {
		handler(nil, fakeMessage{topic: topic, payload: payload})
	}
	return nil
}

func (b *fakeBroker) Unsubscribe(topics ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range topics {
		delete(b.handlers, t)
	}
	return nil
}

func (b *fakeBroker) PublishJson(topic string, data interface{}) error {
	return b.PublishCommand(topic, data)
}

func (b *fakeBroker) PublishCommand(topic string, data interface{}) error {
	b.mu.Lock()
	b.published = append(b.published, published{topic: topic, data: data})
	hook := b.onPublish
	b.mu.Unlock()
	if hook != nil {
		hook(topic)
	}
	return nil
}

func (b *fakeBroker) emit(topic string, payload string) {
	b.mu.Lock()
	handler := b.handlers[topic]
	b.mu.Unlock()
	if handler != nil {
		handler(nil, fakeMessage{topic: topic, payload: []byte(payload)})
	}
}

func (b *fakeBroker) commands() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, p := range b.published {
		out = append(out, p.topic[strings.LastIndex(p.topic, "/")+1:])
	}
	return out
}

const (
	fixTopic   = "drone-follow/v1/vehicles/bebop/fix"
	stateTopic = "drone-follow/v1/vehicles/bebop/state"
)

func newBridge(t *testing.T, state string) (*Vehicle, *fakeBroker) {
	t.Helper()
	broker := newFakeBroker()
	if state != "" {
		broker.retained[stateTopic] = []byte(`{"state":"` + state + `"}`)
	}
	broker.retained[fixTopic] = []byte(`{"latitude":10,"longitude":20,"altitude":5}`)

	v := New(vehicle.Options{
		Name:            "follower",
		Namespace:       "bebop",
		ConnectAttempts: 2,
		ConnectDelay:    50 * time.Millisecond,
		ReleaseTimeout:  50 * time.Millisecond,
	}, broker, mq.NewTopicManager("drone-follow", zerolog.Nop()), zerolog.Nop())

	require.NoError(t, v.Connect(context.Background()))
	return v, broker
}

func TestConnectWithoutTelemetryFails(t *testing.T) {
	broker := newFakeBroker()
	v := New(vehicle.Options{Name: "follower", ConnectAttempts: 2, ConnectDelay: 10 * time.Millisecond},
		broker, mq.NewTopicManager("drone-follow", zerolog.Nop()), zerolog.Nop())

	err := v.Connect(context.Background())
	assert.ErrorIs(t, err, vehicle.ErrConnection)
}

func TestGetPositionReturnsLatestFix(t *testing.T) {
	v, broker := newBridge(t, "hovering")

	broker.emit(fixTopic, `{"data":{"latitude":10.5,"longitude":20.5,"altitude":12}}`)

	pos, err := v.GetPosition(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, models.Position{Latitude: 10.5, Longitude: 20.5, Altitude: 12}, pos)
}

func TestGetPositionTimesOutOnStaleFix(t *testing.T) {
	v, _ := newBridge(t, "hovering")
	v.now = func() time.Time { return time.Now().Add(time.Minute) }

	_, err := v.GetPosition(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, vehicle.ErrTimeout)
}

func TestStatusFromFlyingState(t *testing.T) {
	v, broker := newBridge(t, "landed")

	status, err := v.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.FlightModeLanded, status.Mode)
	assert.False(t, status.Airborne)

	broker.emit(stateTopic, `{"state":"hovering","relative_altitude":3.5}`)
	status, _ = v.Status(context.Background())
	assert.Equal(t, models.FlightModeHold, status.Mode)
	assert.True(t, status.Airborne)
	assert.Equal(t, 3.5, status.RelativeAltitude)
}

func TestMotionInertWhenLanded(t *testing.T) {
	v, broker := newBridge(t, "landed")

	require.NoError(t, v.SetMotionCommand(context.Background(), models.MotionCommand{Pitch: 40}))
	assert.Empty(t, broker.commands())

	broker.emit(stateTopic, `{"state":"flying"}`)
	require.NoError(t, v.SetMotionCommand(context.Background(), models.MotionCommand{Pitch: 140}))
	require.Equal(t, []string{CmdMotion}, broker.commands())
	assert.Equal(t, models.MotionCommand{Pitch: 100}, broker.published[0].data)
}

func TestTakeoffNoopWhenAirborne(t *testing.T) {
	v, broker := newBridge(t, "hovering")

	require.NoError(t, v.Takeoff(context.Background()))
	assert.Empty(t, broker.commands())
}

func TestGotoUnsupported(t *testing.T) {
	v, _ := newBridge(t, "hovering")

	err := v.GotoPosition(context.Background(), 1, 2, 3)
	assert.ErrorIs(t, err, vehicle.ErrUnsupported)
}

func TestPrepareForReleaseWaitsForHover(t *testing.T) {
	v, broker := newBridge(t, "landed")
	broker.onPublish = func(topic string) {
		if strings.HasSuffix(topic, "/"+CmdRelease) {
			go broker.emit(stateTopic, `{"state":"hovering"}`)
		}
	}

	require.NoError(t, v.PrepareForRelease(context.Background()))
	assert.Equal(t, []string{CmdRelease}, broker.commands())
}

func TestPrepareForReleaseTimesOut(t *testing.T) {
	v, broker := newBridge(t, "landed")

	err := v.PrepareForRelease(context.Background())
	assert.ErrorIs(t, err, vehicle.ErrTimeout)
	assert.Equal(t, []string{CmdRelease, CmdReleaseCancel}, broker.commands())
}

func TestCameraPayload(t *testing.T) {
	v, broker := newBridge(t, "hovering")

	require.NoError(t, v.SetCameraAngle(context.Background(), -45))
	raw, err := json.Marshal(broker.published[0].data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tilt":-45}`, string(raw))
}

func TestDisconnectTwice(t *testing.T) {
	v, _ := newBridge(t, "hovering")

	assert.NoError(t, v.Disconnect(context.Background()))
	assert.NoError(t, v.Disconnect(context.Background()))
}

func TestMotionThrottleConvention(t *testing.T) {
	v, broker := newBridge(t, "hovering")
	v.opts.UnsignedThrottle = true

	require.NoError(t, v.SetMotionCommand(context.Background(), models.ZeroMotion))
	require.NoError(t, v.SetMotionCommand(context.Background(), models.MotionCommand{Throttle: 100}))
	require.NoError(t, v.SetMotionCommand(context.Background(), models.MotionCommand{Roll: 20, Throttle: -100}))

	require.Len(t, broker.published, 3)
	assert.Equal(t, models.MotionCommand{Throttle: 50}, broker.published[0].data, "zero motion is mid-stick on the wire")
	assert.Equal(t, models.MotionCommand{Throttle: 100}, broker.published[1].data)
	assert.Equal(t, models.MotionCommand{Roll: 20, Throttle: 0}, broker.published[2].data)
}

func TestTelemetryFromOtherNamespaceIgnored(t *testing.T) {
	v, _ := newBridge(t, "hovering")

	v.handleFix(nil, fakeMessage{topic: "drone-follow/v1/vehicles/leader/fix", payload: []byte(`{"latitude":1,"longitude":2,"altitude":3}`)})
	v.handleState(nil, fakeMessage{topic: "drone-follow/v1/vehicles/leader/state", payload: []byte(`{"state":"landed"}`)})

	pos, err := v.GetPosition(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.Position{Latitude: 10, Longitude: 20, Altitude: 5}, pos)

	status, err := v.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Airborne)
}
