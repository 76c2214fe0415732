package policy

import (
	"sync/atomic"
	"time"

	"github.com/torosent/fusetune/internal/stats"
)

// Policy recommends a wait budget for the next operation of its kind and
// folds completed operation timings back into its running statistics.
//
// Implementations are safe for concurrent use: any number of goroutines may
// read recommendations and end transactions against the same Policy.
type Policy interface {
	// Transaction returns a new transaction bound to this policy. It has
	// no side effect on the statistics.
	Transaction() *Transaction

	// WaitTime computes the duration to recommend right now from the
	// current statistics snapshot. It is a pure read.
	WaitTime() time.Duration

	// Metrics returns a consistent point-in-time snapshot of the
	// accumulated statistics.
	Metrics() stats.Snapshot

	// Reset atomically replaces the statistics cell and returns the
	// snapshot as it was immediately before the reset.
	Reset(initial time.Duration, startOverCount int) stats.Snapshot

	// Execute wraps work in a transaction: it reads the wait budget,
	// invokes work with it, and ends the transaction on every exit path.
	Execute(work func(wait time.Duration) error) error

	// update folds one completed sample into the statistics cell. Called
	// only by Transaction.End.
	update(elapsed time.Duration, timedOut bool)
}

// core owns a policy's single shared mutable resource: the statistics cell.
// Readers load a consistent Snapshot without blocking; writers go through a
// compare-and-swap retry loop so concurrent updates never lose an increment.
type core struct {
	cell atomic.Pointer[stats.Snapshot]
}

func newCore(snap stats.Snapshot) *core {
	c := &core{}
	c.cell.Store(&snap)
	return c
}

func (c *core) Metrics() stats.Snapshot {
	return *c.cell.Load()
}

func (c *core) update(elapsed time.Duration, timedOut bool) {
	for {
		cur := c.cell.Load()
		next := cur.Update(elapsed, timedOut)
		if c.cell.CompareAndSwap(cur, &next) {
			return
		}
	}
}

func (c *core) Reset(initial time.Duration, startOverCount int) stats.Snapshot {
	for {
		cur := c.cell.Load()
		next := cur.Reset(initial, startOverCount)
		if c.cell.CompareAndSwap(cur, &next) {
			return *cur
		}
	}
}

// execute runs work under a fresh transaction, guaranteeing End is invoked
// exactly once whether work returns normally or fails.
func execute(p Policy, work func(wait time.Duration) error) error {
	tx := p.Transaction()
	defer tx.End()
	return work(tx.WaitTime())
}

// ExecuteResult wraps a value-returning unit of work in a transaction against
// p, with the same acquire/release guarantees as Policy.Execute.
func ExecuteResult[T any](p Policy, work func(wait time.Duration) (T, error)) (T, error) {
	tx := p.Transaction()
	defer tx.End()
	return work(tx.WaitTime())
}
