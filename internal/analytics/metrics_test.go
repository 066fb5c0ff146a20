package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndSnapshot(t *testing.T) {
	m, err := NewMetrics(filepath.Join(t.TempDir(), "metrics.json"))
	require.NoError(t, err)

	samples := []Sample{
		{City: "lisboa", RuleName: "cheapest_in_city", CacheHit: false, Latency: 10 * time.Millisecond},
		{City: "lisboa", RuleName: "cheapest_in_city", CacheHit: true, Latency: 2 * time.Millisecond},
		{City: "porto", RuleName: "fastest_in_city", CacheHit: false, Corrected: true, Latency: 30 * time.Millisecond},
		{City: "", RuleName: "generic", CacheHit: false, Fallback: true, Failed: true, Latency: 50 * time.Millisecond},
	}
	for _, s := range samples {
		require.NoError(t, m.Record(s))
	}

	snap := m.Snapshot()
	assert.Equal(t, int64(4), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.Errors)
	assert.InDelta(t, 0.25, snap.ErrorRate, 1e-9)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.InDelta(t, 0.25, snap.CacheHitRate, 1e-9)
	assert.Equal(t, int64(1), snap.Corrections)
	assert.Equal(t, int64(1), snap.FallbackCalls)
	assert.Equal(t, int64(2), snap.MinLatencyMS)
	assert.Equal(t, int64(50), snap.MaxLatencyMS)
	assert.InDelta(t, 23.0, snap.AvgLatencyMS, 1e-9)
	assert.Equal(t, int64(30), snap.MedianLatencyMS)
	assert.Equal(t, int64(2), snap.QueriesPerCity["lisboa"])
	assert.Equal(t, int64(2), snap.QueriesPerRule["cheapest_in_city"])
}

func TestMetricsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")

	m, err := NewMetrics(path)
	require.NoError(t, err)
	require.NoError(t, m.Record(Sample{City: "braga", RuleName: "best_in_city", Latency: 5 * time.Millisecond}))

	reopened, err := NewMetrics(path)
	require.NoError(t, err)
	snap := reopened.Snapshot()
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.QueriesPerCity["braga"])
}

func TestUnmatchedLogTop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unmatched.json")

	l, err := NewUnmatchedLog(path)
	require.NoError(t, err)

	require.NoError(t, l.Record("onde carrego o meu carro"))
	require.NoError(t, l.Record("onde carrego o meu carro"))
	require.NoError(t, l.Record("carregamento rapido perto da praia"))
	require.NoError(t, l.Record(""))

	top := l.Top(10)
	require.Len(t, top, 2)
	assert.Equal(t, "onde carrego o meu carro", top[0].Text)
	assert.Equal(t, int64(2), top[0].Count)

	reopened, err := NewUnmatchedLog(path)
	require.NoError(t, err)
	assert.Len(t, reopened.Top(0), 2)
}
