// Package metrics exposes follow loop and mission telemetry to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drone-follow/internal/follow"
	"drone-follow/internal/mission"
	"drone-follow/internal/models"
)

type Collector struct {
	gatherer prometheus.Gatherer

	FollowTicks       *prometheus.CounterVec
	Separation        prometheus.Gauge
	EffectiveDistance prometheus.Gauge
	PhaseTransitions  *prometheus.CounterVec
	MissionPhase      *prometheus.GaugeVec
	MissionRuns       *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "follow_ticks_total",
		Help: "Follow loop ticks, labeled by outcome.",
	}, []string{"outcome"}), "follow_ticks_total")
	if err != nil {
		return nil, err
	}
	separation, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "follow_separation_meters",
		Help: "Last measured leader to follower separation.",
	}), "follow_separation_meters")
	if err != nil {
		return nil, err
	}
	effective, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "follow_effective_distance_meters",
		Help: "Follow distance used for the last goto target.",
	}), "follow_effective_distance_meters")
	if err != nil {
		return nil, err
	}
	transitions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_phase_transitions_total",
		Help: "Mission phase transitions, labeled by target phase.",
	}, []string{"phase"}), "mission_phase_transitions_total")
	if err != nil {
		return nil, err
	}
	phase, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mission_phase",
		Help: "1 for the current mission phase, 0 otherwise.",
	}, []string{"phase"}), "mission_phase")
	if err != nil {
		return nil, err
	}
	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_runs_total",
		Help: "Finished mission runs, labeled by result.",
	}, []string{"result"}), "mission_runs_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		FollowTicks:       ticks,
		Separation:        separation,
		EffectiveDistance: effective,
		PhaseTransitions:  transitions,
		MissionPhase:      phase,
		MissionRuns:       runs,
	}, nil
}

func (c *Collector) ObserveFollowSample(sample models.FollowSample) {
	if c == nil {
		return
	}
	c.FollowTicks.WithLabelValues(sample.Outcome).Inc()
	if sample.Separation > 0 {
		c.Separation.Set(sample.Separation)
	}
	if sample.EffectiveDistance > 0 {
		c.EffectiveDistance.Set(sample.EffectiveDistance)
	}
}

func (c *Collector) PhaseChanged(_ context.Context, t mission.Transition) {
	if c == nil {
		return
	}
	c.PhaseTransitions.WithLabelValues(t.To.String()).Inc()
	for _, p := range mission.Phases() {
		value := 0.0
		if p == t.To {
			value = 1
		}
		c.MissionPhase.WithLabelValues(p.String()).Set(value)
	}
	if t.To.Terminal() {
		c.MissionRuns.WithLabelValues(t.To.String()).Inc()
	}
}

func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T, name string) (T, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}

var (
	_ follow.Metrics   = (*Collector)(nil)
	_ mission.Observer = (*Collector)(nil)
)
