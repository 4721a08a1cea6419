// Package setup resolves the metrics backend choice shared by the dtl and
// flipwatch binaries: flag value beats environment variable beats disabled.
package setup

import (
	"log"
	"os"

	"dtl/internal/metrics"
	"dtl/internal/metrics/datadog"
	"dtl/internal/metrics/prompush"
)

// Config selects and parameterizes the process metrics backend. Empty
// fields fall back to the corresponding environment variables.
type Config struct {
	Backend    string // none, pushgateway, datadog; env METRICS_BACKEND
	GatewayURL string // env PUSHGATEWAY_URL, default http://localhost:9091
	StatsdAddr string // env STATSD_ADDR, default 127.0.0.1:8125
	Job        string // Pushgateway job group / statsd job:<name> tag
	Verbose    bool
}

// Install resolves cfg, installs the chosen backend via metrics.SetBackend,
// and returns a flush function for main to defer. Backend init failures are
// logged and leave the no-op backend in place; the returned function is
// never nil.
func Install(cfg Config) func() {
	flush := func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
	disabled := func() {}

	backend := cfg.Backend
	if backend == "" {
		backend = os.Getenv("METRICS_BACKEND")
	}

	switch backend {
	case "pushgateway":
		gwURL := cfg.GatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(cfg.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return disabled
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gwURL, cfg.Job)
		metrics.SetBackend(b)
		return flush

	case "datadog":
		addr := cfg.StatsdAddr
		if addr == "" {
			addr = os.Getenv("STATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}

		b, err := datadog.NewBackend(datadog.Config{Addr: addr, GlobalTags: []string{"job:" + cfg.Job}})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return disabled
		}
		log.Printf("metrics: backend=datadog addr=%s job=%s", addr, cfg.Job)
		metrics.SetBackend(b)
		return flush

	case "", "none":
		if cfg.Verbose {
			log.Printf("metrics: disabled (backend=%q)", backend)
		}
		return disabled

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backend)
		return disabled
	}
}
