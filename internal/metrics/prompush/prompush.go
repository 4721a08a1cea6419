// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Batch runs are too short-lived for scrape-based collection, so instead of
// exposing an HTTP endpoint the backend accumulates samples in a private
// registry and pushes the whole registry to a Pushgateway when Flush is
// called, usually once at the end of a run. All client_golang types stay in
// this package; callers only see metrics.Backend.
package prompush

import (
	"fmt"

	"dtl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend accumulates pipeline metrics in a dedicated Prometheus registry
// and pushes them to a Pushgateway on Flush.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // dtl_steps_total
	stepDuration *prometheus.SummaryVec // dtl_step_duration_seconds

	rowCounter  *prometheus.CounterVec // dtl_rows_total
	flipCounter prometheus.Counter     // dtl_flips_total
}

// NewBackend constructs a Pushgateway backend. gatewayURL is the base URL of
// the Pushgateway server and is required. jobName becomes the Pushgateway
// "job" grouping key; empty means "dtl".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "dtl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),

		// op and result are dynamic labels; job arrives as the
		// Pushgateway grouping key, not as a label here.
		stepCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dtl_steps_total",
				Help: "Pipeline step executions, partitioned by op and result.",
			},
			[]string{"op", "result"},
		),
		stepDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "dtl_step_duration_seconds",
				Help:       "Pipeline step duration in seconds, partitioned by op and result.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"op", "result"},
		),
		rowCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dtl_rows_total",
				Help: "Row counts per kind (materialized, emitted, filtered_out, ...).",
			},
			[]string{"kind"},
		),
		flipCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dtl_flips_total",
				Help: "Watched-value flips detected by flipwatch runs.",
			},
		),
	}

	for _, c := range []prometheus.Collector{b.stepCounter, b.stepDuration, b.rowCounter, b.flipCounter} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return b, nil
}

// IncCounter routes a counter update to the collector registered under name.
// Unknown names are dropped.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "dtl_steps_total":
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["op"], labels["result"]).Add(delta)

	case "dtl_rows_total":
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case "dtl_flips_total":
		if b.flipCounter == nil {
			return
		}
		b.flipCounter.Add(delta)
	}
}

// ObserveHistogram records a step duration sample. Other metric names are dropped.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "dtl_step_duration_seconds" || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["op"], labels["result"]).Observe(value)
}

// Flush pushes the accumulated registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push()
}
