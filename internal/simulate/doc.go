// Package simulate drives synthetic workloads through adaptive timeout
// policies.
//
// The [Runner] executes a configurable number of operations across a worker
// pool, optionally paced to a target rate. What an operation actually does
// is behind the [Operation] interface; the fusetune command wires in an
// implementation that asks a timeout policy for a wait budget, sleeps a
// sampled synthetic latency, and reports the outcome.
//
//	opts := simulate.Options{
//		Concurrency:   10,
//		TotalOps:      1000,
//		RatePerSecond: 200,
//		Operation:     op,
//	}
//	result := simulate.New(opts).Run(ctx)
//
// # Latency models
//
// [NewLatencySampler] builds the synthetic latency source: constant, normal
// jitter around a base, or a spike mix that occasionally multiplies samples
// to mimic a degraded downstream. Samplers are seeded so runs reproduce.
package simulate
