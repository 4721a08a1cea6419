// Package datadog forwards metrics to a Datadog agent over DogStatsD.
//
// Label maps become Datadog tags and counter/histogram updates go through
// the official statsd client. A binary configures this once at startup
// and installs it with metrics.SetBackend; no other package in the
// project imports Datadog types.
package datadog

import (
	"fmt"
	"sort"

	"dtl/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config configures the DogStatsD client.
type Config struct {
	// Addr is the agent's DogStatsD address: "127.0.0.1:8125" or a
	// "unix:///path" socket. Required.
	Addr string

	// Namespace is an optional prefix added to every metric name, e.g. "dtl.".
	Namespace string

	// GlobalTags are applied to all metrics emitted by this backend,
	// e.g. []string{"env:prod", "service:dtl"}.
	GlobalTags []string

	// SampleRate is the client-side sampling rate in (0, 1].
	// Values outside that range are treated as 1 (no sampling).
	SampleRate float64
}

// Backend is a Datadog implementation of metrics.Backend backed by a
// statsd.Client.
type Backend struct {
	client *statsd.Client
	rate   float64
}

// NewBackend constructs a Datadog metrics backend from the given
// configuration. The Addr field is required; when empty, NewBackend
// returns an error.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}

	rate := cfg.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	return &Backend{client: c, rate: rate}, nil
}

// IncCounter implements metrics.Backend.IncCounter as a Datadog Count.
// DogStatsD counts are integral; fractional deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Count(name, int64(delta), tagList(labels), b.rate)
}

// ObserveHistogram implements metrics.Backend.ObserveHistogram as a Datadog Histogram.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Histogram(name, value, tagList(labels), b.rate)
}

// Flush implements metrics.Backend.Flush by sending any buffered metrics
// without closing the connection, so a long-lived process can flush after
// every pipeline run.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Flush()
}

// tagList converts labels into sorted "key:value" Datadog tags.
func tagList(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
