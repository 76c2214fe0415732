// Package stats holds the statistics model behind adaptive timeout policies.
//
// The central [Snapshot] type is an immutable record of the running mean and
// standard deviation of elapsed times for one policy, together with sample
// and timeout counts. Snapshots are replaced wholesale on every update, which
// is what lets policies share one atomically-swapped cell between many
// readers and writers without torn reads.
//
// # Online updates
//
// Update uses Welford's online algorithm, so mean and variance stay accurate
// regardless of sample magnitudes or window length:
//
//	snap := stats.New("checkout", time.Second, 1000)
//	snap = snap.Update(120*time.Millisecond, false)
//	snap = snap.Update(180*time.Millisecond, false)
//	fmt.Println(snap.AverageTime, snap.StandardDeviation)
//
// The standard deviation is the population form (divide by n): the window is
// treated as the whole behavior being tracked, not a sample of it.
//
// # Window restarts
//
// Each Snapshot carries a StartOverCount. Once folding a sample would push
// TotalCount past it, the statistics restart with the triggering sample as
// the first of a new window. Recommendations therefore follow recent
// behavior instead of drifting toward an all-time average.
//
// # Collector
//
// [Collector] is the simulation-side aggregate: an HdrHistogram-backed,
// concurrency-safe recorder of observed elapsed times and handed-out wait
// budgets, summarized by [Collector.Report].
package stats
