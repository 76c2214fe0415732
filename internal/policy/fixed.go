package policy

import (
	"fmt"
	"time"

	"github.com/torosent/fusetune/internal/stats"
)

// FixedPolicy always recommends its configured wait time. Statistics are
// still tracked for introspection, but they never influence the
// recommendation.
type FixedPolicy struct {
	*core
}

// NewFixed builds a policy that recommends wait for every operation.
func NewFixed(name string, wait time.Duration, startOverCount int) (*FixedPolicy, error) {
	if wait <= 0 {
		return nil, fmt.Errorf("fixed policy %q: wait must be > 0, got %s", name, wait)
	}
	if startOverCount <= 0 {
		return nil, fmt.Errorf("fixed policy %q: start over count must be > 0, got %d", name, startOverCount)
	}
	return &FixedPolicy{core: newCore(stats.New(name, wait, startOverCount))}, nil
}

func (p *FixedPolicy) WaitTime() time.Duration {
	return p.Metrics().Initial
}

func (p *FixedPolicy) Transaction() *Transaction {
	return newTransaction(p)
}

func (p *FixedPolicy) Execute(work func(wait time.Duration) error) error {
	return execute(p, work)
}
