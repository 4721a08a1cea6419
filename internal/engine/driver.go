package engine

import (
	"fmt"
	"time"

	"dtl/internal/document"
	"dtl/internal/metrics"
)

// Runner executes decoded steps strictly in document order against a
// registry. Each step's output registers under its declared name
// before the next step starts, so a step may reference any source or
// prior output but nothing later.
type Runner struct {
	Registry *Registry
	Policy   Policy

	// Job labels this run's metrics.
	Job string

	// Logf, when non-nil, traces each step; wire log.Printf here for
	// verbose runs.
	Logf func(format string, a ...any)
}

// Run applies every step in order and returns the final step's
// dataset. The first failing step aborts the run with no partial
// result. Step durations and output arities flow through the metrics
// facade, which is a no-op unless a backend is installed.
func (r *Runner) Run(steps []Step) (document.Dataset, error) {
	if len(steps) == 0 {
		return nil, Configf("pipeline has no steps")
	}

	pol := r.Policy
	if pol.Observe == nil {
		pol.Observe = func(kind string, n int) {
			metrics.RecordRows(r.Job, kind, n)
		}
	}

	var last document.Dataset
	for i, st := range steps {
		start := time.Now()
		out, err := st.Apply(r.Registry, pol)
		metrics.RecordStep(r.Job, st.Op(), err, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("steps[%d] %s -> %q: %w", i, st.Op(), st.Output(), err)
		}
		r.Registry.Register(st.Output(), out)
		metrics.RecordRows(r.Job, "emitted", len(out))
		r.logf("steps[%d] %s -> %q: %d record(s) in %s",
			i, st.Op(), st.Output(), len(out), time.Since(start).Truncate(time.Microsecond))
		last = out
	}
	return last, nil
}

func (r *Runner) logf(format string, a ...any) {
	if r.Logf != nil {
		r.Logf(format, a...)
	}
}
