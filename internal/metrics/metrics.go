// Package metrics records operational counters and timings for pipeline
// and flipwatch runs.
//
// A single process-wide Backend receives every update. The default is a
// no-op, so library code can instrument unconditionally; binaries that
// want real metrics install one of the concrete backends (prompush,
// datadog) at startup via SetBackend. Only those subpackages know about
// a specific metrics system.
package metrics

import "time"

// Labels name the dimensions attached to a single metric update.
type Labels map[string]string

// Backend is implemented by concrete metric sinks.
type Backend interface {
	// IncCounter adds delta to the named counter.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records one sample of a duration-style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush sends anything buffered; push-style sinks need this.
	Flush() error
}

// nop discards all updates and backs the package until SetBackend is called.
type nop struct{}

func (nop) IncCounter(string, float64, Labels)       {}
func (nop) ObserveHistogram(string, float64, Labels) {}
func (nop) Flush() error                             { return nil }

var active Backend = nop{}

// SetBackend installs b as the process-wide backend; nil is ignored.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	active = b
}

// Flush flushes the active backend.
func Flush() error {
	return active.Flush()
}

// RecordStep counts one executed pipeline step and records its duration,
// labeled by job, operator, and ok/error result.
func RecordStep(job, op string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	lbls := Labels{
		"job":    job,
		"op":     op,
		"result": result,
	}

	active.IncCounter("dtl_steps_total", 1, lbls)
	active.ObserveHistogram("dtl_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows adds delta to the row counter for the given job and kind.
// Non-positive deltas are dropped.
//
// Kinds mirror what a run counts, e.g.:
//   - "materialized"
//   - "emitted"
//   - "filtered_out"
//   - "coercion_miss"
//   - "groups"
func RecordRows(job, kind string, delta int) {
	if delta <= 0 {
		return
	}
	active.IncCounter("dtl_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordFlips adds delta to the flip counter for a flipwatch run.
// Non-positive deltas are dropped.
func RecordFlips(job string, delta int) {
	if delta <= 0 {
		return
	}
	active.IncCounter("dtl_flips_total", float64(delta), Labels{
		"job": job,
	})
}
