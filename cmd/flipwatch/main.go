package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"dtl/internal/flipwatch/store"
	"dtl/internal/metrics/setup"

	// register all built-in snapshot store backends with the factory.
	_ "dtl/internal/flipwatch/store/all"
)

// main is the entry point for the flipwatch binary. It snapshots a keyed
// dataset and reports flips of one watched field against the previous
// snapshot in the configured store.
func main() {
	var (
		inputPath      string
		format         string
		keyRaw         string
		watchRaw       string
		storeKind      string
		dsn            string
		runID          string
		metricsBackend string
		pushGatewayURL string
		statsdAddr     string
		metricsJob     string
	)

	flag.StringVar(&inputPath, "input", "", "input dataset path (required)")
	flag.StringVar(&format, "format", "jsonl", "input format: jsonl or json")
	flag.StringVar(&keyRaw, "key", "", "path of the record key (required)")
	flag.StringVar(&watchRaw, "watch", "", "path of the watched field (required)")
	flag.StringVar(&storeKind, "store", "sqlite",
		fmt.Sprintf("snapshot store kind (known: %s)", strings.Join(store.ListKinds(), ", ")))
	flag.StringVar(&dsn, "dsn", "", "store DSN (required)")
	flag.StringVar(&runID, "run-id", "", "run identifier (default: a fresh uuid)")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend to use: none, pushgateway, datadog (overrides env METRICS_BACKEND; default none)")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddr, "statsd-addr", "", "DogStatsD address (overrides env STATSD_ADDR)")
	flag.StringVar(&metricsJob, "metrics-job", "", "job label attached to metrics (default flipwatch)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	// One-shot batch output: no prefix, no timestamps.
	log.SetFlags(0)

	if inputPath == "" {
		fatalf("missing required -input flag")
	}
	if keyRaw == "" {
		fatalf("missing required -key flag")
	}
	if watchRaw == "" {
		fatalf("missing required -watch flag")
	}
	if dsn == "" {
		fatalf("missing required -dsn flag")
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	job := metricsJob
	if job == "" {
		job = "flipwatch"
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
		inputPath: inputPath,
		format:    format,
		keyRaw:    keyRaw,
		watchRaw:  watchRaw,
		storeKind: storeKind,
		dsn:       dsn,
		runID:     runID,
		job:       job,
		out:       os.Stdout,
	}
	if *verbose {
		opts.logf = log.Printf
	}

	if err := run(context.Background(), opts); err != nil {
		log.Fatalf("%v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
