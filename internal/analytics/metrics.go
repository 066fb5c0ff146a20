// Package analytics records query traffic so the translator vocabulary
// can be tuned from real usage.
package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// maxLatencySamples bounds the reservoir used for the median so the
// metrics file cannot grow without limit.
const maxLatencySamples = 1024

// Sample is one recorded query outcome.
type Sample struct {
	City       string
	RuleName   string
	CacheHit   bool
	Corrected  bool
	Fallback   bool
	Failed     bool
	Latency    time.Duration
	ObservedAt time.Time
}

// state is the persisted shape of the metrics file.
type state struct {
	TotalQueries   int64            `json:"total_queries"`
	Errors         int64            `json:"errors"`
	CacheHits      int64            `json:"cache_hits"`
	CacheMisses    int64            `json:"cache_misses"`
	Corrections    int64            `json:"corrections"`
	FallbackCalls  int64            `json:"fallback_calls"`
	LatencySumMS   int64            `json:"latency_sum_ms"`
	LatencyMinMS   int64            `json:"latency_min_ms"`
	LatencyMaxMS   int64            `json:"latency_max_ms"`
	LatencySamples []int64          `json:"latency_samples_ms"`
	PerDay         map[string]int64 `json:"per_day"`
	PerCity        map[string]int64 `json:"per_city"`
	PerRule        map[string]int64 `json:"per_rule"`
}

// Metrics accumulates counters across restarts. Every Record flushes to
// disk through a temp file and rename.
type Metrics struct {
	mu   sync.Mutex
	path string
	st   state
}

// NewMetrics loads existing counters from path, starting fresh when the
// file does not exist.
func NewMetrics(path string) (*Metrics, error) {
	m := &Metrics{path: path}
	m.st.PerDay = make(map[string]int64)
	m.st.PerCity = make(map[string]int64)
	m.st.PerRule = make(map[string]int64)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read metrics file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m.st); err != nil {
		return nil, fmt.Errorf("failed to parse metrics file %s: %w", path, err)
	}
	if m.st.PerDay == nil {
		m.st.PerDay = make(map[string]int64)
	}
	if m.st.PerCity == nil {
		m.st.PerCity = make(map[string]int64)
	}
	if m.st.PerRule == nil {
		m.st.PerRule = make(map[string]int64)
	}
	return m, nil
}

// Record folds one query outcome into the counters and persists them.
func (m *Metrics) Record(s Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.st.TotalQueries++
	if s.Failed {
		m.st.Errors++
	}
	if s.CacheHit {
		m.st.CacheHits++
	} else {
		m.st.CacheMisses++
	}
	if s.Corrected {
		m.st.Corrections++
	}
	if s.Fallback {
		m.st.FallbackCalls++
	}

	ms := s.Latency.Milliseconds()
	m.st.LatencySumMS += ms
	if m.st.TotalQueries == 1 || ms < m.st.LatencyMinMS {
		m.st.LatencyMinMS = ms
	}
	if ms > m.st.LatencyMaxMS {
		m.st.LatencyMaxMS = ms
	}
	if len(m.st.LatencySamples) < maxLatencySamples {
		m.st.LatencySamples = append(m.st.LatencySamples, ms)
	} else {
		// Overwrite a rotating slot, keeps the reservoir fresh.
		m.st.LatencySamples[m.st.TotalQueries%maxLatencySamples] = ms
	}

	at := s.ObservedAt
	if at.IsZero() {
		at = time.Now()
	}
	m.st.PerDay[at.UTC().Format("2006-01-02")]++
	if s.City != "" {
		m.st.PerCity[s.City]++
	}
	if s.RuleName != "" {
		m.st.PerRule[s.RuleName]++
	}

	return m.flushLocked()
}

// Snapshot is the derived view served on the stats endpoints.
type Snapshot struct {
	TotalQueries     int64            `json:"total_queries"`
	Errors           int64            `json:"errors"`
	ErrorRate        float64          `json:"error_rate"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	CacheHitRate     float64          `json:"cache_hit_rate"`
	Corrections      int64            `json:"corrections"`
	FallbackCalls    int64            `json:"fallback_calls"`
	AvgLatencyMS     float64          `json:"avg_latency_ms"`
	MedianLatencyMS  int64            `json:"median_latency_ms"`
	MinLatencyMS     int64            `json:"min_latency_ms"`
	MaxLatencyMS     int64            `json:"max_latency_ms"`
	QueriesPerDay    map[string]int64 `json:"queries_per_day"`
	QueriesPerCity   map[string]int64 `json:"queries_per_city"`
	QueriesPerRule   map[string]int64 `json:"queries_per_rule"`
}

// Snapshot derives rates and latency stats from the raw counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		TotalQueries:   m.st.TotalQueries,
		Errors:         m.st.Errors,
		CacheHits:      m.st.CacheHits,
		CacheMisses:    m.st.CacheMisses,
		Corrections:    m.st.Corrections,
		FallbackCalls:  m.st.FallbackCalls,
		MinLatencyMS:   m.st.LatencyMinMS,
		MaxLatencyMS:   m.st.LatencyMaxMS,
		QueriesPerDay:  copyCounts(m.st.PerDay),
		QueriesPerCity: copyCounts(m.st.PerCity),
		QueriesPerRule: copyCounts(m.st.PerRule),
	}

	if m.st.TotalQueries > 0 {
		snap.ErrorRate = float64(m.st.Errors) / float64(m.st.TotalQueries)
		snap.AvgLatencyMS = float64(m.st.LatencySumMS) / float64(m.st.TotalQueries)
	}
	if lookups := m.st.CacheHits + m.st.CacheMisses; lookups > 0 {
		snap.CacheHitRate = float64(m.st.CacheHits) / float64(lookups)
	}
	if n := len(m.st.LatencySamples); n > 0 {
		sorted := make([]int64, n)
		copy(sorted, m.st.LatencySamples)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		snap.MedianLatencyMS = sorted[n/2]
	}
	return snap
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *Metrics) flushLocked() error {
	raw, err := json.MarshalIndent(&m.st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	return atomicWrite(m.path, raw)
}

// atomicWrite replaces path with data via a temp file and rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".metrics-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
