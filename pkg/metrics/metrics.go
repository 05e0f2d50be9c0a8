// Package metrics provides Prometheus metrics for sweeps and runs.
//
// A sweep is a short lived process, so metrics are pushed to a Pushgateway
// when it ends instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the collectors of one process. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	StepsTotal     *prometheus.CounterVec
	RecipesSkipped *prometheus.CounterVec
	LastSweepUnix  prometheus.Gauge
	SweepDuration  prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scrapebot",
				Subsystem: "runs",
				Name:      "total",
				Help:      "Total number of recipe runs by terminal status",
			},
			[]string{"recipe", "status"},
		),
		RunDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scrapebot",
				Subsystem: "runs",
				Name:      "duration_seconds",
				Help:      "Duration of recipe runs in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"recipe"},
		),
		StepsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scrapebot",
				Subsystem: "steps",
				Name:      "total",
				Help:      "Total number of applied steps by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		RecipesSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scrapebot",
				Subsystem: "sweep",
				Name:      "recipes_skipped_total",
				Help:      "Recipes a sweep did not run, by reason",
			},
			[]string{"reason"},
		),
		LastSweepUnix: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "scrapebot",
			Subsystem: "sweep",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time the last sweep completed",
		}),
		SweepDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "scrapebot",
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Duration of the last sweep in seconds",
		}),
	}
}

// Registry exposes the collectors, for tests and for pushing.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordRun(recipe string, status types.RunStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(recipe, status.String()).Inc()
	m.RunDuration.WithLabelValues(recipe).Observe(d.Seconds())
}

func (m *Metrics) RecordStep(kind catalog.Kind, status types.RunStatus) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(kind.String(), status.String()).Inc()
}

func (m *Metrics) RecordSkip(reason string) {
	if m == nil {
		return
	}
	m.RecipesSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordSweep(started time.Time, d time.Duration) {
	if m == nil {
		return
	}
	m.LastSweepUnix.Set(float64(started.Add(d).Unix()))
	m.SweepDuration.Set(d.Seconds())
}

// PushConfig locates a Pushgateway.
type PushConfig struct {
	URL      string
	Job      string
	Username string
	Password string
}

// Push sends every collector to the gateway, grouped by instance.
func (m *Metrics) Push(ctx context.Context, cfg PushConfig, instance string) error {
	if m == nil || cfg.URL == "" {
		return nil
	}
	job := cfg.Job
	if job == "" {
		job = "scrapebot"
	}
	p := push.New(cfg.URL, job).Gatherer(m.registry).Grouping("instance", instance)
	if cfg.Username != "" {
		p = p.BasicAuth(cfg.Username, cfg.Password)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", cfg.URL, err)
	}
	return nil
}
