package influx

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"drone-follow/internal/follow"
	"drone-follow/internal/models"
)

const FollowMeasurement = "follow_tick"

// PointWriter is the non-blocking subset of api.WriteAPI the writer needs.
type PointWriter interface {
	WritePoint(point *write.Point)
}

type FollowWriter struct {
	writeAPI PointWriter
	logger   zerolog.Logger
}

func NewFollowWriter(writeAPI PointWriter, logger zerolog.Logger) *FollowWriter {
	return &FollowWriter{
		writeAPI: writeAPI,
		logger:   logger,
	}
}

func (w *FollowWriter) WriteFollowSample(ctx context.Context, sample models.FollowSample) error {
	point := influxdb2.NewPoint(
		FollowMeasurement,
		sample.ToInfluxTags(),
		sample.ToInfluxFields(),
		sample.Timestamp,
	)

	w.writeAPI.WritePoint(point)

	w.logger.Debug().
		Str("leader", sample.Leader).
		Str("follower", sample.Follower).
		Str("outcome", sample.Outcome).
		Float64("separation", sample.Separation).
		Msg("Added follow sample to influxDB")

	return nil
}

var _ follow.Recorder = (*FollowWriter)(nil)
