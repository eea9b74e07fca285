package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestTimingMetric_RecordAggregates(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")

	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("count = %d, want 2", s.Count)
	}
	if s.AvgMs != 3 {
		t.Errorf("avg = %v, want 3", s.AvgMs)
	}
	if s.MaxMs != 4 {
		t.Errorf("max = %v, want 4", s.MaxMs)
	}
	if s.LastMs != 4 {
		t.Errorf("last = %v, want 4", s.LastMs)
	}

	m.Reset()
	if m.Count() != 0 {
		t.Errorf("count after reset = %d", m.Count())
	}
}

func TestTimingMetric_Disabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	m.Record(time.Second)
	if m.Count() != 0 {
		t.Errorf("disabled metric recorded %d samples", m.Count())
	}
}

func TestTimingMetric_Concurrent(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Record(time.Duration(i+1) * time.Microsecond)
		}(i)
	}
	wg.Wait()

	if m.Count() != 50 {
		t.Fatalf("count = %d, want 50", m.Count())
	}
	if got := m.Stats().MaxMs; got != 0.05 {
		t.Errorf("max = %v, want 0.05", got)
	}
}

func TestAllStats_SkipsEmpty(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	defer ResetAll()

	GraphBuild.Record(time.Millisecond)
	stats := AllStats()
	if len(stats) != 1 || stats[0].Name != "graph_build" {
		t.Fatalf("AllStats = %+v, want only graph_build", stats)
	}
}
