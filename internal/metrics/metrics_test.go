package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-follow/internal/config/components"
	"drone-follow/internal/mission"
	"drone-follow/internal/models"
)

func TestObserveFollowSample(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	c.ObserveFollowSample(models.FollowSample{Outcome: "moved", Separation: 22, EffectiveDistance: 20})
	c.ObserveFollowSample(models.FollowSample{Outcome: "moved", Separation: 21, EffectiveDistance: 20})
	c.ObserveFollowSample(models.FollowSample{Outcome: "position_failure"})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.FollowTicks.WithLabelValues("moved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FollowTicks.WithLabelValues("position_failure")))
	assert.Equal(t, 21.0, testutil.ToFloat64(c.Separation))
	assert.Equal(t, 20.0, testutil.ToFloat64(c.EffectiveDistance))
}

func TestPhaseChanged(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	ctx := context.Background()
	c.PhaseChanged(ctx, mission.Transition{From: mission.PhaseIdle, To: mission.PhaseConnecting})
	c.PhaseChanged(ctx, mission.Transition{From: mission.PhaseConnecting, To: mission.PhaseAborted})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.PhaseTransitions.WithLabelValues("connecting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MissionPhase.WithLabelValues("aborted")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.MissionPhase.WithLabelValues("connecting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MissionRuns.WithLabelValues("aborted")))
}

func TestNewCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	require.NoError(t, err)
	second, err := NewCollector(reg)
	require.NoError(t, err)

	first.ObserveFollowSample(models.FollowSample{Outcome: "too_close"})
	assert.Equal(t, 1.0, testutil.ToFloat64(second.FollowTicks.WithLabelValues("too_close")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveFollowSample(models.FollowSample{Outcome: "moved"})
		c.PhaseChanged(context.Background(), mission.Transition{To: mission.PhaseDone})
	})
}

func TestServerServesMetrics(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	c.ObserveFollowSample(models.FollowSample{Outcome: "moved", Separation: 20})

	server := NewServer(components.MetricsConfigImpl{Address: "127.0.0.1:0", Path: "/metrics"}, c, zerolog.Nop())
	require.NoError(t, server.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `follow_ticks_total{outcome="moved"} 1`)
	assert.Contains(t, string(body), "follow_separation_meters 20")
}
