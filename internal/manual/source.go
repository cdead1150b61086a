package manual

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNoSample means no input arrived within the bounded wait.
var ErrNoSample = errors.New("no input sample")

// Sample is one reading of the four control axes, each normalised to
// [-1, 1]. Pushing the stick forward or up is positive.
type Sample struct {
	Roll     float64
	Pitch    float64
	Yaw      float64
	Throttle float64
}

// InputSource is pulled for the next sample. Next must not block past wait.
type InputSource interface {
	Next(ctx context.Context, wait time.Duration) (Sample, error)
	Close() error
}

// ChannelSource feeds samples from a channel. A closed channel ends the
// stream with io.EOF.
type ChannelSource struct {
	samples <-chan Sample
}

func NewChannelSource(samples <-chan Sample) *ChannelSource {
	return &ChannelSource{samples: samples}
}

func (s *ChannelSource) Next(ctx context.Context, wait time.Duration) (Sample, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case sample, ok := <-s.samples:
		if !ok {
			return Sample{}, io.EOF
		}
		return sample, nil
	case <-timer.C:
		return Sample{}, ErrNoSample
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	}
}

func (s *ChannelSource) Close() error { return nil }
