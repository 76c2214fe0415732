package stats

import (
	"math"
	"time"
)

// Snapshot is an immutable view of the running statistics for one timeout
// policy. A Snapshot is never mutated in place: Update and Reset return
// replacement values, so readers holding an old Snapshot always see a
// consistent set of fields.
type Snapshot struct {
	// Name identifies the policy for registry lookups. Empty for
	// unregistered policies.
	Name string `json:"name,omitempty"`

	// Initial is the configured ceiling and default wait time.
	Initial time.Duration `json:"initial_ns"`

	// StartOverCount bounds the statistics window: once folding a sample
	// would push TotalCount past it, the window restarts so recommendations
	// track recent behavior instead of all-time history.
	StartOverCount int `json:"start_over_count"`

	// TotalCount is the number of samples folded in since the last reset
	// or window restart.
	TotalCount int `json:"total_count"`

	// TotalTimeoutCount is the subset of TotalCount where the operation
	// ran past its wait budget.
	TotalTimeoutCount int `json:"total_timeout_count"`

	// AverageTime is the running mean of elapsed times in nanoseconds.
	AverageTime float64 `json:"average_time_ns"`

	// StandardDeviation is the population standard deviation of elapsed
	// times in nanoseconds.
	StandardDeviation float64 `json:"standard_deviation_ns"`

	// Welford sum of squared deviations from the mean. Carried alongside
	// the mean so updates stay numerically stable at any sample count.
	m2 float64
}

// New returns an empty Snapshot for a policy with the given ceiling and
// window size. Callers validate initial and startOverCount before
// constructing; New does not.
func New(name string, initial time.Duration, startOverCount int) Snapshot {
	return Snapshot{
		Name:           name,
		Initial:        initial,
		StartOverCount: startOverCount,
	}
}

// Update folds one completed sample into the statistics and returns the
// resulting Snapshot. When the incremented count would exceed
// StartOverCount, the window restarts and the returned Snapshot describes
// exactly the triggering sample ("one sample just seen").
func (s Snapshot) Update(elapsed time.Duration, isTimeout bool) Snapshot {
	x := float64(elapsed)

	if s.TotalCount+1 > s.StartOverCount {
		next := Snapshot{
			Name:           s.Name,
			Initial:        s.Initial,
			StartOverCount: s.StartOverCount,
			TotalCount:     1,
			AverageTime:    x,
		}
		if isTimeout {
			next.TotalTimeoutCount = 1
		}
		return next
	}

	n := s.TotalCount + 1
	delta := x - s.AverageTime
	mean := s.AverageTime + delta/float64(n)
	m2 := s.m2 + delta*(x-mean)

	next := s
	next.TotalCount = n
	if isTimeout {
		next.TotalTimeoutCount++
	}
	next.AverageTime = mean
	next.m2 = m2
	next.StandardDeviation = math.Sqrt(m2 / float64(n))
	return next
}

// Reset returns a fresh Snapshot with counts and running statistics zeroed.
// A positive newInitial replaces the ceiling; a positive newStartOverCount
// replaces the window size. Non-positive values keep the current settings.
func (s Snapshot) Reset(newInitial time.Duration, newStartOverCount int) Snapshot {
	initial := s.Initial
	if newInitial > 0 {
		initial = newInitial
	}
	startOver := s.StartOverCount
	if newStartOverCount > 0 {
		startOver = newStartOverCount
	}
	return New(s.Name, initial, startOver)
}

// TimeoutRate returns the fraction of samples in the current window that
// exceeded their wait budget.
func (s Snapshot) TimeoutRate() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.TotalTimeoutCount) / float64(s.TotalCount)
}
