package policy

import (
	"fmt"
	"time"
)

// Settings configure one timeout policy.
type Settings struct {
	// Name registers the policy for later inspection and reset. Empty
	// means unregistered.
	Name string

	// Initial is the ceiling and default wait time. Required.
	Initial time.Duration

	// Rule selects the strategy. Ignored when Debug is set.
	Rule Rule

	// DebugWait replaces every recommendation while Debug is set, so work
	// paused under a debugger never trips an empirically tightened
	// timeout. Required.
	DebugWait time.Duration

	// MinSamples gates the empirical strategy: recommendations stay at
	// Initial until more than MinSamples have been observed.
	MinSamples int

	// StartOverCount bounds the statistics window.
	StartOverCount int

	// Debug forces a fixed policy with DebugWait regardless of Rule. The
	// flag is injected by the caller (typically from configuration)
	// rather than sniffed from the runtime.
	Debug bool

	// Registry receives named policies. Nil means DefaultRegistry.
	Registry *Registry
}

// New validates settings and builds the policy variant the rule selects.
// Invalid settings fail construction; a policy never exists in an invalid
// state.
func New(s Settings) (Policy, error) {
	if s.Initial <= 0 {
		return nil, fmt.Errorf("policy %q: initial must be > 0, got %s", s.Name, s.Initial)
	}
	if s.DebugWait <= 0 {
		return nil, fmt.Errorf("policy %q: debug wait must be > 0, got %s", s.Name, s.DebugWait)
	}
	if s.StartOverCount <= 0 {
		return nil, fmt.Errorf("policy %q: start over count must be > 0, got %d", s.Name, s.StartOverCount)
	}

	var (
		p   Policy
		c   *core
		err error
	)

	switch {
	case s.Debug:
		fixed, ferr := NewFixed(s.Name, s.DebugWait, s.StartOverCount)
		if ferr != nil {
			return nil, ferr
		}
		p, c = fixed, fixed.core

	default:
		if err = s.Rule.validate(); err != nil {
			return nil, fmt.Errorf("policy %q: %w", s.Name, err)
		}
		switch s.Rule.Kind {
		case RuleFixed:
			fixed, ferr := NewFixed(s.Name, s.Initial, s.StartOverCount)
			if ferr != nil {
				return nil, ferr
			}
			p, c = fixed, fixed.core
		case RuleSigma:
			emp, eerr := NewEmpirical(s.Name, s.Initial, s.Rule.Unit, s.MinSamples, s.StartOverCount)
			if eerr != nil {
				return nil, eerr
			}
			p, c = emp, emp.core
		}
	}

	if s.Name != "" {
		reg := s.Registry
		if reg == nil {
			reg = DefaultRegistry
		}
		reg.add(s.Name, c)
	}

	return p, nil
}
