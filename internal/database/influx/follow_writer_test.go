package influx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-follow/internal/models"
)

type capturingWriter struct {
	points []*write.Point
}

func (c *capturingWriter) WritePoint(p *write.Point) {
	c.points = append(c.points, p)
}

func TestWriteFollowSample(t *testing.T) {
	capture := &capturingWriter{}
	writer := NewFollowWriter(capture, zerolog.Nop())

	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	err := writer.WriteFollowSample(context.Background(), models.FollowSample{
		Leader:            "vtol",
		Follower:          "fpv",
		Outcome:           "moved",
		Separation:        22.5,
		Bearing:           90,
		EffectiveDistance: 20,
		Target:            &models.Position{Latitude: 10, Longitude: 20, Altitude: 30},
		Timestamp:         ts,
	})
	require.NoError(t, err)
	require.Len(t, capture.points, 1)

	line := write.PointToLineProtocol(capture.points[0], time.Nanosecond)
	assert.True(t, strings.HasPrefix(line, FollowMeasurement+","))
	assert.Contains(t, line, "follower=fpv")
	assert.Contains(t, line, "outcome=moved")
	assert.Contains(t, line, "separation=22.5")
	assert.Contains(t, line, "target_altitude=30")
	assert.Equal(t, ts, capture.points[0].Time())
}

func TestWriteFollowSampleWithoutTarget(t *testing.T) {
	capture := &capturingWriter{}
	writer := NewFollowWriter(capture, zerolog.Nop())

	require.NoError(t, writer.WriteFollowSample(context.Background(), models.FollowSample{
		Leader:   "vtol",
		Follower: "fpv",
		Outcome:  "position_failure",
	}))

	line := write.PointToLineProtocol(capture.points[0], time.Nanosecond)
	assert.NotContains(t, line, "target_latitude")
	assert.Contains(t, line, "outcome=position_failure")
}
