package policy

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func mustFixed(t *testing.T, name string, wait time.Duration, startOver int) *FixedPolicy {
	t.Helper()
	p, err := NewFixed(name, wait, startOver)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	return p
}

func mustEmpirical(t *testing.T, name string, initial time.Duration, sigma float64, minSamples, startOver int) *EmpiricalPolicy {
	t.Helper()
	p, err := NewEmpirical(name, initial, sigma, minSamples, startOver)
	if err != nil {
		t.Fatalf("NewEmpirical: %v", err)
	}
	return p
}

func TestFixedWaitTimeInvariant(t *testing.T) {
	p := mustFixed(t, "fixed", 500*time.Millisecond, 100)

	for i := 0; i < 50; i++ {
		p.update(time.Duration(i)*time.Millisecond, i%5 == 0)
		if got := p.WaitTime(); got != 500*time.Millisecond {
			t.Fatalf("after %d updates: WaitTime = %s, want 500ms", i+1, got)
		}
	}

	// Statistics are still tracked for introspection.
	if got := p.Metrics().TotalCount; got != 50 {
		t.Errorf("TotalCount = %d, want 50", got)
	}
}

func TestEmpiricalWaitTimeGatedByMinSamples(t *testing.T) {
	p := mustEmpirical(t, "emp", time.Second, 2, 5, 1000)

	// With totalCount <= minSamples the recommendation is exactly the ceiling.
	for i := 0; i < 5; i++ {
		if got := p.WaitTime(); got != time.Second {
			t.Fatalf("before sample %d: WaitTime = %s, want 1s", i+1, got)
		}
		p.update(10*time.Millisecond, false)
	}
	if got := p.WaitTime(); got != time.Second {
		t.Fatalf("at exactly minSamples: WaitTime = %s, want 1s", got)
	}

	// One more sample crosses the gate and the recommendation tightens.
	p.update(10*time.Millisecond, false)
	got := p.WaitTime()
	if got >= time.Second {
		t.Fatalf("past minSamples: WaitTime = %s, want < 1s", got)
	}
	if got < 10*time.Millisecond {
		t.Errorf("WaitTime = %s, want >= observed mean of 10ms", got)
	}
}

func TestEmpiricalWaitTimeKnownDistribution(t *testing.T) {
	// Samples with mean 300µs and population stddev sqrt(16000)µs ≈ 126.49µs.
	samples := []time.Duration{
		100 * time.Microsecond,
		300 * time.Microsecond,
		500 * time.Microsecond,
		300 * time.Microsecond,
		300 * time.Microsecond,
	}

	p := mustEmpirical(t, "emp", time.Second, 2, 3, 1000)
	for _, s := range samples {
		p.update(s, false)
	}

	// ceil(mean + 2·stddev) = ceil(300000 + 2·126491.106...) ns = 552983ns.
	want := 552983 * time.Nanosecond
	if got := p.WaitTime(); got != want {
		t.Errorf("WaitTime = %s, want %s", got, want)
	}
}

func TestEmpiricalWaitTimeNeverExceedsInitial(t *testing.T) {
	p := mustEmpirical(t, "emp", 50*time.Millisecond, 3, 2, 1000)

	// Feed slow samples so mean + 3·stddev is far above the ceiling.
	for i := 0; i < 20; i++ {
		p.update(time.Duration(100+i*50)*time.Millisecond, true)
	}
	if got := p.WaitTime(); got != 50*time.Millisecond {
		t.Errorf("WaitTime = %s, want capped at 50ms", got)
	}
}

func TestEmpiricalEndToEnd(t *testing.T) {
	p := mustEmpirical(t, "emp", time.Second, 2, 5, 100)

	for i := 0; i < 6; i++ {
		p.update(100*time.Millisecond, false)
	}

	got := p.WaitTime()
	if got > time.Second {
		t.Fatalf("WaitTime = %s, want <= 1s", got)
	}
	// Identical samples mean stddev 0, so the recommendation sits at the mean
	// plus at most rounding.
	if got < 100*time.Millisecond || got > 101*time.Millisecond {
		t.Errorf("WaitTime = %s, want ~100ms", got)
	}
}

func TestResetReturnsPreviousSnapshot(t *testing.T) {
	p := mustEmpirical(t, "emp", time.Second, 2, 5, 100)
	p.update(10*time.Millisecond, false)
	p.update(20*time.Millisecond, true)

	prev := p.Reset(2*time.Second, 50)

	if prev.TotalCount != 2 || prev.TotalTimeoutCount != 1 {
		t.Errorf("previous snapshot = total %d timeouts %d, want 2 and 1",
			prev.TotalCount, prev.TotalTimeoutCount)
	}
	if prev.Initial != time.Second {
		t.Errorf("previous Initial = %s, want 1s", prev.Initial)
	}

	now := p.Metrics()
	if now.TotalCount != 0 {
		t.Errorf("post-reset TotalCount = %d, want 0", now.TotalCount)
	}
	if now.Initial != 2*time.Second || now.StartOverCount != 50 {
		t.Errorf("post-reset settings = %s/%d, want 2s/50", now.Initial, now.StartOverCount)
	}
}

func TestConcurrentUpdatesLoseNothing(t *testing.T) {
	const workers = 16
	const perWorker = 500

	p := mustEmpirical(t, "emp", time.Second, 2, 5, workers*perWorker+1)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				p.update(time.Millisecond, false)
			}
		}()
	}
	wg.Wait()

	if got := p.Metrics().TotalCount; got != workers*perWorker {
		t.Fatalf("TotalCount = %d, want %d", got, workers*perWorker)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	p := mustFixed(t, "tx", 100*time.Millisecond, 100)

	tx := p.Transaction()
	if got := p.Metrics().TotalCount; got != 0 {
		t.Fatalf("creating a transaction touched statistics: TotalCount = %d", got)
	}

	first := tx.WaitTime()
	second := tx.WaitTime()
	if first != second {
		t.Errorf("WaitTime not memoized: %s then %s", first, second)
	}

	tx.End()
	if got := p.Metrics().TotalCount; got != 1 {
		t.Fatalf("after End: TotalCount = %d, want 1", got)
	}

	// End is terminal; calling it again must not double-count.
	tx.End()
	if got := p.Metrics().TotalCount; got != 1 {
		t.Errorf("after repeated End: TotalCount = %d, want 1", got)
	}
}

func TestTransactionEndWithoutStartDropsSample(t *testing.T) {
	p := mustFixed(t, "tx", 100*time.Millisecond, 100)

	tx := p.Transaction()
	tx.End()

	if got := p.Metrics().TotalCount; got != 0 {
		t.Fatalf("misused transaction updated statistics: TotalCount = %d", got)
	}
}

func TestExecuteEndsOnAllPaths(t *testing.T) {
	p := mustFixed(t, "exec", 100*time.Millisecond, 100)

	var seen time.Duration
	if err := p.Execute(func(wait time.Duration) error {
		seen = wait
		return nil
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if seen != 100*time.Millisecond {
		t.Errorf("work saw wait %s, want 100ms", seen)
	}
	if got := p.Metrics().TotalCount; got != 1 {
		t.Fatalf("after success: TotalCount = %d, want 1", got)
	}

	wantErr := errors.New("downstream broke")
	if err := p.Execute(func(time.Duration) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("Execute error = %v, want %v", err, wantErr)
	}
	if got := p.Metrics().TotalCount; got != 2 {
		t.Fatalf("after failure: TotalCount = %d, want 2 (sample still recorded)", got)
	}
}

func TestExecuteResult(t *testing.T) {
	p := mustEmpirical(t, "exec", time.Second, 2, 5, 100)

	v, err := ExecuteResult(p, func(wait time.Duration) (string, error) {
		return wait.String(), nil
	})
	if err != nil {
		t.Fatalf("ExecuteResult: %v", err)
	}
	if v != "1s" {
		t.Errorf("result = %q, want %q", v, "1s")
	}
	if got := p.Metrics().TotalCount; got != 1 {
		t.Errorf("TotalCount = %d, want 1", got)
	}
}
