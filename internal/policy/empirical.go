package policy

import (
	"fmt"
	"math"
	"time"

	"github.com/torosent/fusetune/internal/stats"
)

// EmpiricalPolicy derives its recommendation from the observed distribution
// of elapsed times: mean plus a configured number of standard deviations,
// never more than the initial ceiling. Until enough samples accumulate it
// recommends the ceiling unchanged, so a cold policy behaves exactly like a
// fixed one.
type EmpiricalPolicy struct {
	*core
	sigmaUnits float64
	minSamples int
}

// NewEmpirical builds a statistically adaptive policy. initial is both the
// default recommendation and the hard upper bound on every future
// recommendation.
func NewEmpirical(name string, initial time.Duration, sigmaUnits float64, minSamples, startOverCount int) (*EmpiricalPolicy, error) {
	if initial <= 0 {
		return nil, fmt.Errorf("empirical policy %q: initial must be > 0, got %s", name, initial)
	}
	if sigmaUnits <= 0 {
		return nil, fmt.Errorf("empirical policy %q: sigma units must be > 0, got %g", name, sigmaUnits)
	}
	if minSamples <= 0 {
		return nil, fmt.Errorf("empirical policy %q: min samples must be > 0, got %d", name, minSamples)
	}
	if startOverCount <= 0 {
		return nil, fmt.Errorf("empirical policy %q: start over count must be > 0, got %d", name, startOverCount)
	}
	return &EmpiricalPolicy{
		core:       newCore(stats.New(name, initial, startOverCount)),
		sigmaUnits: sigmaUnits,
		minSamples: minSamples,
	}, nil
}

func (p *EmpiricalPolicy) WaitTime() time.Duration {
	snap := p.Metrics()
	if snap.TotalCount > p.minSamples {
		candidate := time.Duration(math.Ceil(snap.AverageTime + p.sigmaUnits*snap.StandardDeviation))
		if candidate < snap.Initial {
			return candidate
		}
	}
	return snap.Initial
}

func (p *EmpiricalPolicy) Transaction() *Transaction {
	return newTransaction(p)
}

func (p *EmpiricalPolicy) Execute(work func(wait time.Duration) error) error {
	return execute(p, work)
}
