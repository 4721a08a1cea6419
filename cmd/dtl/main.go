package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"dtl/internal/config"
	"dtl/internal/metrics/setup"
)

// main is the entry point for the dtl binary. It loads the spec document,
// validates it, optionally initializes a metrics backend, and executes the
// pipeline run.
func main() {
	var (
		specPath       string
		outPath        string
		validate       bool
		strictValues   bool
		parallelism    int
		metricsBackend string
		pushGatewayURL string
		statsdAddr     string
		metricsJob     string
	)

	flag.StringVar(&specPath, "spec", "", "spec document JSON path (required)")
	flag.BoolVar(&validate, "validate", false, "validate the spec and exit")
	flag.StringVar(&outPath, "out", "", "write the final dataset to this file instead of stdout")
	flag.BoolVar(&strictValues, "strict-values", false, "abort on value coercion misses instead of counting them")
	flag.IntVar(&parallelism, "source-parallelism", 0, "max concurrent dataSource loads (overrides env DTL_SOURCE_PARALLELISM; default 4)")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend to use: none, pushgateway, datadog (overrides env METRICS_BACKEND; default none)")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddr, "statsd-addr", "", "DogStatsD address (overrides env STATSD_ADDR)")
	flag.StringVar(&metricsJob, "metrics-job", "", "job label attached to metrics (default dtl)")
	verbose := flag.Bool("v", false, "enable verbose step logs")

	flag.Parse()

	// One-shot batch output: no prefix, no timestamps.
	log.SetFlags(0)

	if specPath == "" {
		fatalf("missing required -spec flag")
	}

	spec, err := config.Load(specPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.Validate(spec)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("spec is invalid: %s", specPath)
		os.Exit(1)
	}

	// If the validate flag is set, only validate the spec and exit.
	if validate {
		log.Printf("spec is valid: %s", specPath)
		os.Exit(0)
	}

	job := metricsJob
	if job == "" {
		job = "dtl"
	}

	flushMetrics := setup.Install(setup.Config{
		Backend:    metricsBackend,
		GatewayURL: pushGatewayURL,
		StatsdAddr: statsdAddr,
		Job:        job,
		Verbose:    *verbose,
	})
	defer flushMetrics()

	opts := runOptions{
		strict:      strictValues,
		parallelism: resolveParallelism(parallelism),
		job:         job,
		outPath:     outPath,
	}
	if *verbose {
		opts.logf = log.Printf
	}

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("spec: %s (%d dataSource(s), %d step(s))",
			specPath, len(spec.DataSources), len(spec.Steps))
	}

	if err := run(ctx, spec, opts); err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// resolveParallelism applies flag > env > default for source loading.
func resolveParallelism(flagVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	if env := os.Getenv("DTL_SOURCE_PARALLELISM"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
		log.Printf("ignoring DTL_SOURCE_PARALLELISM=%q: not a positive integer", env)
	}
	return 4
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
