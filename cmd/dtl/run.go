package main

import (
	"context"
	"fmt"
	"os"

	"dtl/internal/config"
	"dtl/internal/engine"
	"dtl/internal/metrics"
	"dtl/internal/render"
	"dtl/internal/source"
)

// runOptions carries the resolved CLI settings into a run.
type runOptions struct {
	strict      bool
	parallelism int
	job         string
	outPath     string
	logf        func(format string, a ...any)
}

// run executes one spec end to end: decode every step eagerly so a bad
// step aborts before any data is read, materialize the declared sources,
// drive the pipeline, and render the final dataset.
func run(ctx context.Context, spec config.Spec, opts runOptions) error {
	steps, err := engine.DecodeSteps(spec.Steps)
	if err != nil {
		return err
	}

	sets, err := source.MaterializeAll(ctx, spec.DataSources, opts.parallelism)
	if err != nil {
		return err
	}

	reg := engine.NewRegistry()
	total := 0
	for name, ds := range sets {
		reg.Register(name, ds)
		total += len(ds)
	}
	metrics.RecordRows(opts.job, "materialized", total)
	if opts.logf != nil {
		opts.logf("materialized %d dataSource(s), %d record(s)", len(sets), total)
	}

	runner := &engine.Runner{
		Registry: reg,
		Policy:   engine.Policy{Strict: opts.strict},
		Job:      opts.job,
		Logf:     opts.logf,
	}
	final, err := runner.Run(steps)
	if err != nil {
		return err
	}

	if opts.outPath != "" {
		f, err := os.Create(opts.outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.outPath, err)
		}
		if err := render.Write(f, final); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return render.Write(os.Stdout, final)
}
