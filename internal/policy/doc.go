// Package policy implements adaptive timeout policies: given a stream of
// completed operations, each policy maintains running statistics and
// recommends the wait budget the next operation of that kind should use.
//
// # Policies
//
// Two strategies exist behind the [Policy] interface. [FixedPolicy] always
// recommends its configured duration. [EmpiricalPolicy] recommends
// mean + k·stddev of the observed elapsed times and never exceeds the
// configured ceiling, so it only ever tightens timeouts as confidence in the
// distribution grows.
//
// Policies are built through the factory:
//
//	p, err := policy.New(policy.Settings{
//		Name:           "downstream-x",
//		Initial:        time.Second,
//		Rule:           policy.Sigma(2),
//		DebugWait:      time.Hour,
//		MinSamples:     5,
//		StartOverCount: 1000,
//	})
//
// # Transactions
//
// A [Transaction] brackets one timed unit of work. Reading its WaitTime
// freezes the recommendation and start timestamp; End measures the elapsed
// time and feeds it back into the policy. Execute wraps the lifecycle:
//
//	err := p.Execute(func(wait time.Duration) error {
//		ctx, cancel := context.WithTimeout(ctx, wait)
//		defer cancel()
//		return call(ctx)
//	})
//
// The computed wait is only a recommendation: cancelling work that overruns
// it is the caller's business, as above. End still records the overrun as a
// timeout either way.
//
// # Concurrency
//
// Each policy's statistics live in a single atomically swapped snapshot.
// Readers never block and never see a torn snapshot; writers retry a
// compare-and-swap until their sample lands, so concurrent updates never
// lose an increment. Updates become visible to other goroutines eventually,
// not necessarily before the updater's next read elsewhere.
//
// # Registry
//
// Named policies register in a [Registry] (the package-level
// [DefaultRegistry] unless one is injected) holding weak references only.
// Lookups against reclaimed policies report "not found" rather than failing.
package policy
