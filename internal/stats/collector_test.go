package stats

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCollectorRecordAndReport(t *testing.T) {
	c := NewCollector()

	c.Record(10*time.Millisecond, 100*time.Millisecond, false, nil)
	c.Record(20*time.Millisecond, 100*time.Millisecond, false, nil)
	c.Record(120*time.Millisecond, 100*time.Millisecond, true, nil)
	c.Record(15*time.Millisecond, 100*time.Millisecond, false, errors.New("boom"))

	rep := c.Report(2 * time.Second)

	if rep.Total != 4 {
		t.Fatalf("Total = %d, want 4", rep.Total)
	}
	if rep.Completions != 2 {
		t.Errorf("Completions = %d, want 2", rep.Completions)
	}
	if rep.Timeouts != 1 {
		t.Errorf("Timeouts = %d, want 1", rep.Timeouts)
	}
	if rep.Failures != 1 {
		t.Errorf("Failures = %d, want 1", rep.Failures)
	}
	if got, want := rep.TimeoutRate, 0.25; got != want {
		t.Errorf("TimeoutRate = %g, want %g", got, want)
	}
	if rep.MinElapsed != 10*time.Millisecond {
		t.Errorf("MinElapsed = %s, want 10ms", rep.MinElapsed)
	}
	if rep.MaxElapsed != 120*time.Millisecond {
		t.Errorf("MaxElapsed = %s, want 120ms", rep.MaxElapsed)
	}
	if rep.OpsPerSec != 2 {
		t.Errorf("OpsPerSec = %g, want 2", rep.OpsPerSec)
	}
	if rep.P99Elapsed < 100*time.Millisecond {
		t.Errorf("P99Elapsed = %s, want >= 100ms", rep.P99Elapsed)
	}
	// All wait budgets were identical, so the P50 should sit near them.
	if rep.P50Wait < 90*time.Millisecond || rep.P50Wait > 110*time.Millisecond {
		t.Errorf("P50Wait = %s, want ~100ms", rep.P50Wait)
	}
}

func TestCollectorEmptyReport(t *testing.T) {
	c := NewCollector()
	rep := c.Report(time.Second)

	if rep.Total != 0 {
		t.Fatalf("Total = %d, want 0", rep.Total)
	}
	if rep.TimeoutRate != 0 || rep.OpsPerSec != 0 {
		t.Errorf("empty report has nonzero rates: timeout=%g ops=%g", rep.TimeoutRate, rep.OpsPerSec)
	}
	if rep.P50Elapsed != 0 {
		t.Errorf("P50Elapsed = %s, want 0", rep.P50Elapsed)
	}
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector()
	const workers = 8
	const perWorker = 250

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.Record(time.Millisecond, 10*time.Millisecond, false, nil)
			}
		}()
	}
	wg.Wait()

	rep := c.Report(time.Second)
	if rep.Total != workers*perWorker {
		t.Fatalf("Total = %d, want %d", rep.Total, workers*perWorker)
	}
}

func TestCollectorClampsExtremeDurations(t *testing.T) {
	c := NewCollector()
	c.Record(100*time.Nanosecond, 2*time.Minute, false, nil)

	rep := c.Report(time.Second)
	if rep.Total != 1 {
		t.Fatalf("Total = %d, want 1", rep.Total)
	}
	// Sub-microsecond elapsed and over-range wait must both be clamped, not dropped.
	if rep.P50Elapsed <= 0 {
		t.Errorf("P50Elapsed = %s, want > 0", rep.P50Elapsed)
	}
	if rep.P99Wait > 61*time.Second {
		t.Errorf("P99Wait = %s, want clamped to histogram range", rep.P99Wait)
	}
}
