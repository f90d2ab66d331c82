// Package metrics provides Prometheus metrics for TickBoard sessions.
//
// Each [Collector] owns its own registry so several boards (or tests) can
// run in one process without duplicate-registration panics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the session, producer and scheduler metrics.
type Collector struct {
	registry *prometheus.Registry

	// Gauges
	sessionsActive prometheus.Gauge
	backlog        prometheus.Gauge

	// Counters
	sessionsCreated   prometheus.Counter
	sessionsDestroyed prometheus.Counter
	sessionsRejected  prometheus.Counter
	samplesGenerated  prometheus.Counter
	samplesSkipped    prometheus.Counter
	samplesApplied    prometheus.Counter
	samplesDropped    prometheus.Counter

	// Histograms
	sessionLifetime prometheus.Histogram
}

// NewCollector creates a collector registered on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tickboard_sessions_active",
			Help: "Currently live viewing sessions",
		}),
		backlog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tickboard_update_backlog",
			Help: "Samples enqueued but not yet applied, across all sessions",
		}),

		sessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tickboard_sessions_created_total",
			Help: "Total sessions created",
		}),
		sessionsDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tickboard_sessions_destroyed_total",
			Help: "Total sessions destroyed",
		}),
		sessionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "tickboard_sessions_rejected_total",
			Help: "Session creations that failed to start",
		}),
		samplesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tickboard_samples_generated_total",
			Help: "Samples handed to the update scheduler",
		}),
		samplesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "tickboard_samples_skipped_total",
			Help: "Producer iterations skipped because the sample could not be computed",
		}),
		samplesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "tickboard_samples_applied_total",
			Help: "Samples applied to session stores",
		}),
		samplesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "tickboard_samples_dropped_total",
			Help: "Samples delivered after their session was destroyed",
		}),

		sessionLifetime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tickboard_session_lifetime_seconds",
			Help:    "Time from session creation to destroy",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600, 14400},
		}),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) SessionCreated() {
	c.sessionsCreated.Inc()
	c.sessionsActive.Inc()
}

// SessionDestroyed records a destroy and how long the session lived.
func (c *Collector) SessionDestroyed(lifetimeSeconds float64) {
	c.sessionsDestroyed.Inc()
	c.sessionsActive.Dec()
	c.sessionLifetime.Observe(lifetimeSeconds)
}

func (c *Collector) SessionRejected() { c.sessionsRejected.Inc() }

func (c *Collector) SampleGenerated() { c.samplesGenerated.Inc() }

func (c *Collector) SampleSkipped() { c.samplesSkipped.Inc() }

func (c *Collector) SampleApplied() { c.samplesApplied.Inc() }

func (c *Collector) SampleDropped() { c.samplesDropped.Inc() }

func (c *Collector) Enqueued() { c.backlog.Inc() }

func (c *Collector) Delivered() { c.backlog.Dec() }
