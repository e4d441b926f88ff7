// Package datadog implements a DogStatsD backend for the metrics package.
//
// Metric names are translated to Datadog's dotted style under a namespace
// (tablemerge_rows_total becomes tablemerge.rows.total) and labels become
// "key:value" tags.
package datadog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DataDog/datadog-go/v5/statsd"

	"tablemerge/internal/metrics"
)

const defaultNamespace = "tablemerge."

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or
	// "unix:///var/run/datadog/dsd.socket". Empty uses the client default
	// (DD_AGENT_HOST / DD_DOGSTATSD_PORT).
	Addr string

	// Namespace prefixes every metric. Defaults to "tablemerge.".
	Namespace string

	// Tags are applied to every metric, e.g. "env:prod".
	Tags []string
}

// Backend forwards counters and histograms to a DogStatsD agent.
type Backend struct {
	client    statsd.ClientInterface
	namespace string
}

// NewBackend creates the statsd client. The namespace is applied here rather
// than by the client so metric names can be stripped of their own prefix.
func NewBackend(cfg Config) (*Backend, error) {
	ns := cfg.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	opts := []statsd.Option{statsd.WithNamespace(ns)}
	if len(cfg.Tags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.Tags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c, namespace: ns}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	// DogStatsD counts are integral; fractional deltas are truncated.
	_ = b.client.Count(metricName(name), int64(delta), labelsToTags(labels), 1)
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Distribution(metricName(name), value, labelsToTags(labels), 1)
}

// Flush sends buffered metrics and closes the client. The run ends after a
// flush, so the backend is not reused.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	if err := b.client.Flush(); err != nil {
		return fmt.Errorf("datadog: flush: %w", err)
	}
	return b.client.Close()
}

// metricName drops the tablemerge_ prefix (the namespace carries it) and
// turns underscores into dots.
func metricName(name string) string {
	name = strings.TrimPrefix(name, "tablemerge_")
	return strings.ReplaceAll(name, "_", ".")
}

// labelsToTags renders labels as sorted "key:value" tags.
func labelsToTags(lbls metrics.Labels) []string {
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
