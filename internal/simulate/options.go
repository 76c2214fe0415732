package simulate

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Operation abstracts executing a single simulated unit of work.
// Implementations obtain their own wait budget (typically from a timeout
// policy) and return an error for operations that failed or overran it.
type Operation interface {
	Do(ctx context.Context) error
}

// Options configure the Runner.
type Options struct {
	Concurrency    int           // number of worker goroutines
	TotalOps       int           // total operations to execute (0 means unlimited until duration/end)
	Duration       time.Duration // overall time limit (0 means no duration cap)
	RatePerSecond  int           // operations per second pacing (0 means unlimited)
	Operation      Operation     // operation executor (required)
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalOps < 0 {
		o.TotalOps = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
