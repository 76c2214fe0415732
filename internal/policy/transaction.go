package policy

import (
	"log/slog"
	"time"
)

// Transaction demarcates one timed unit of work against its owning policy.
//
// The wait budget and start timestamp are captured lazily on the first
// WaitTime call and memoized; reading WaitTime again returns the frozen
// value. End is terminal: it measures the elapsed time, decides whether the
// work ran past its budget, and folds the sample into the policy.
//
// A Transaction is a short-lived, single-goroutine value. Abandoning one
// without calling End simply drops the sample.
type Transaction struct {
	policy  Policy
	wait    time.Duration
	start   time.Time
	started bool
	ended   bool
}

func newTransaction(p Policy) *Transaction {
	return &Transaction{policy: p}
}

// WaitTime freezes and returns the wait budget for this transaction. The
// first call also records the start timestamp the elapsed time is measured
// from.
func (t *Transaction) WaitTime() time.Duration {
	if !t.started {
		t.wait = t.policy.WaitTime()
		t.start = time.Now()
		t.started = true
	}
	return t.wait
}

// End completes the transaction and reports the sample to the policy.
// Calling End on a transaction whose WaitTime was never read is caller
// misuse: the sample is dropped with a warning rather than folded in with a
// meaningless start reference. Repeated End calls are no-ops.
func (t *Transaction) End() {
	if t.ended {
		return
	}
	t.ended = true

	if !t.started {
		slog.Warn("timeout transaction ended without reading its wait time; sample dropped",
			"policy", t.policy.Metrics().Name)
		return
	}

	elapsed := time.Since(t.start)
	t.policy.update(elapsed, elapsed > t.wait)
}
