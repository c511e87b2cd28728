// Package metrics exposes Prometheus instrumentation for the scheduling
// service: API request counts and engine evaluation timings.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the service's Prometheus metrics.
type Collector struct {
	requests   *prometheus.CounterVec
	engineTime *prometheus.HistogramVec
	conflicts  *prometheus.CounterVec
	warnings   *prometheus.CounterVec
}

// NewCollector registers the collectors on reg and returns the bundle.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_api_requests_total",
			Help: "API requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		engineTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_engine_duration_seconds",
			Help:    "Engine evaluation time by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_conflicts_total",
			Help: "Hard conflicts detected during validation, by kind.",
		}, []string{"kind"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_warnings_total",
			Help: "Soft warnings produced during validation, by kind.",
		}, []string{"kind"}),
	}
	for _, col := range []prometheus.Collector{c.requests, c.engineTime, c.conflicts, c.warnings} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRequest counts one API request.
func (c *Collector) ObserveRequest(endpoint, status string) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(endpoint, status).Inc()
}

// ObserveEngine records the duration of one engine evaluation.
func (c *Collector) ObserveEngine(op string, d time.Duration) {
	if c == nil {
		return
	}
	c.engineTime.WithLabelValues(op).Observe(d.Seconds())
}

// CountConflict counts one hard conflict by kind.
func (c *Collector) CountConflict(kind string) {
	if c == nil {
		return
	}
	c.conflicts.WithLabelValues(kind).Inc()
}

// CountWarning counts one soft warning by kind.
func (c *Collector) CountWarning(kind string) {
	if c == nil {
		return
	}
	c.warnings.WithLabelValues(kind).Inc()
}
