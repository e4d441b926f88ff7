package datadog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablemerge/internal/metrics"
)

func TestMetricName(t *testing.T) {
	assert.Equal(t, "rows.total", metricName(metrics.RowsTotal))
	assert.Equal(t, "stage.duration.seconds", metricName(metrics.StageDurationSeconds))
	assert.Equal(t, "custom.metric", metricName("custom_metric"))
}

func TestLabelsToTags(t *testing.T) {
	assert.Nil(t, labelsToTags(nil))
	got := labelsToTags(metrics.Labels{"step": "merge", "job": "teams", "status": "success"})
	assert.Equal(t, []string{"job:teams", "status:success", "step:merge"}, got)
}

func TestZeroBackendIsNoop(t *testing.T) {
	var b Backend
	b.IncCounter(metrics.RowsTotal, 1, nil)
	b.ObserveHistogram(metrics.StageDurationSeconds, 1, nil)
	require.NoError(t, b.Flush())
}

func TestNewBackendUDP(t *testing.T) {
	// UDP needs no listener; writes to an unbound port are dropped.
	b, err := NewBackend(Config{Addr: "127.0.0.1:18125", Tags: []string{"env:test"}})
	require.NoError(t, err)
	assert.Equal(t, defaultNamespace, b.namespace)

	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"step": "merge", "status": "success"})
	b.ObserveHistogram(metrics.StageDurationSeconds, 0.5, metrics.Labels{"step": "merge"})
	require.NoError(t, b.Flush())
}
