package policy

import (
	"fmt"
	"math"
)

// RuleKind names a timeout strategy.
type RuleKind string

const (
	// RuleFixed always recommends the configured initial wait.
	RuleFixed RuleKind = "fixed"
	// RuleSigma recommends mean plus Unit standard deviations, capped at
	// the initial wait.
	RuleSigma RuleKind = "sigma"
)

// Rule selects which strategy the factory builds. The zero value is invalid;
// use Fixed, Sigma or Percentile.
type Rule struct {
	Kind RuleKind
	Unit float64
}

// Fixed returns the rule producing a FixedPolicy.
func Fixed() Rule {
	return Rule{Kind: RuleFixed}
}

// Sigma returns the rule producing an EmpiricalPolicy with the given number
// of standard deviations of headroom above the mean.
func Sigma(unit float64) Rule {
	return Rule{Kind: RuleSigma, Unit: unit}
}

// Percentile derives a sigma rule from a target percentile of a normal
// distribution: p of 0.95 yields roughly 1.64 standard deviations, p of 0.5
// yields zero headroom above the mean.
func Percentile(p float64) (Rule, error) {
	if p <= 0 || p >= 1 {
		return Rule{}, fmt.Errorf("percentile must be within (0, 1), got %g", p)
	}
	return Sigma(math.Erfinv(2*p-1) * math.Sqrt2), nil
}

func (r Rule) validate() error {
	switch r.Kind {
	case RuleFixed:
		return nil
	case RuleSigma:
		if r.Unit <= 0 {
			return fmt.Errorf("sigma rule unit must be > 0, got %g", r.Unit)
		}
		return nil
	default:
		return fmt.Errorf("rule kind %q is not supported", r.Kind)
	}
}
