// Package metrics records in-process timings for the data pipeline.
//
// Collection is on by default and can be turned off with BDUI_METRICS=0.
// The stats view reads the aggregated values; nothing is exported over the
// network.
//
//	func build() {
//	    defer metrics.Timer(metrics.GraphBuild)()
//	    // ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("BDUI_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric tracks timing statistics for a named operation.
// All methods are safe for concurrent use.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	lastNs  atomic.Int64
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if m == nil || !enabled.Load() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)
	m.lastNs.Store(ns)
	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats returns a consistent-enough snapshot of the metric.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.totalNs.Load()
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return TimingStats{
		Name:   m.name,
		Count:  count,
		AvgMs:  float64(avg) / 1e6,
		MaxMs:  float64(m.maxNs.Load()) / 1e6,
		LastMs: float64(m.lastNs.Load()) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.lastNs.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name   string  `json:"name"`
	Count  int64   `json:"count"`
	AvgMs  float64 `json:"avg_ms"`
	MaxMs  float64 `json:"max_ms"`
	LastMs float64 `json:"last_ms"`
}

// Timer returns a function that records elapsed time when called.
func Timer(m *TimingMetric) func() {
	if m == nil || !enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Pipeline metrics.
var (
	SnapshotRead = newTimingMetric("snapshot_read")
	GraphBuild   = newTimingMetric("graph_build")
	GraphLoad    = newTimingMetric("graph_load")
	FilterApply  = newTimingMetric("filter_apply")
	UIRender     = newTimingMetric("ui_render")
)

// All returns every registered timing metric.
func All() []*TimingMetric {
	return []*TimingMetric{SnapshotRead, GraphBuild, GraphLoad, FilterApply, UIRender}
}

// ResetAll resets all timing metrics.
func ResetAll() {
	for _, m := range All() {
		m.Reset()
	}
}

// AllStats returns stats for the metrics that have data.
func AllStats() []TimingStats {
	var stats []TimingStats
	for _, m := range All() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
