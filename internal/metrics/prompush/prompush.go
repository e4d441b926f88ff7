// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A merge run is a short-lived batch job, so instead of exposing a scrape
// endpoint the collected series are pushed to a Pushgateway when the run
// flushes. Series are grouped by job and, when set, by run id.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tablemerge/internal/metrics"
)

// Config holds Pushgateway backend configuration.
type Config struct {
	// GatewayURL is the Pushgateway base URL, e.g. http://pushgateway:9091.
	GatewayURL string
	// Job is the Pushgateway job name. Defaults to "tablemerge".
	Job string
	// RunID, when set, is added as a grouping label so concurrent runs do
	// not overwrite each other.
	RunID string
}

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	cfg Config
	reg *prometheus.Registry

	stages        *prometheus.CounterVec   // step, status
	stageDuration *prometheus.HistogramVec // step, status
	rows          *prometheus.CounterVec   // kind
	batches       prometheus.Counter
}

// NewBackend registers the collectors on a private registry.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if cfg.Job == "" {
		cfg.Job = "tablemerge"
	}

	b := &Backend{
		cfg: cfg,
		reg: prometheus.NewRegistry(),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions by stage and status.",
		}, []string{"step", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StageDurationSeconds,
			Help:    "Pipeline stage duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"step", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows by kind (loaded, merged, dropped, written).",
		}, []string{"kind"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Batches flushed to the storage sink.",
		}),
	}
	for _, c := range []prometheus.Collector{b.stages, b.stageDuration, b.rows, b.batches} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		if b.stages != nil {
			b.stages.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RowsTotal:
		if b.rows != nil {
			b.rows.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.BatchesTotal:
		if b.batches != nil {
			b.batches.Add(delta)
		}
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDurationSeconds || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway, replacing the group.
func (b *Backend) Flush() error {
	p := push.New(b.cfg.GatewayURL, b.cfg.Job).Gatherer(b.reg)
	if b.cfg.RunID != "" {
		p = p.Grouping("run_id", b.cfg.RunID)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}
