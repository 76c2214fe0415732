// Package config provides configuration loading and parsing for fusetune.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// parsePolicyJSON parses an inline --policy JSON definition into a
// PolicyConfig. Durations accept Go duration strings ("750ms") or bare
// numbers interpreted as milliseconds.
func parsePolicyJSON(raw string) (PolicyConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PolicyConfig{}, fmt.Errorf("empty policy definition")
	}
	if !gjson.Valid(raw) {
		return PolicyConfig{}, fmt.Errorf("invalid JSON: %q", raw)
	}

	doc := gjson.Parse(raw)
	pc := PolicyConfig{
		Name: strings.TrimSpace(doc.Get("name").String()),
	}

	var err error
	if pc.Initial, err = asDuration(doc.Get("initial")); err != nil {
		return PolicyConfig{}, fmt.Errorf("initial: %w", err)
	}
	if pc.DebugWait, err = asDuration(doc.Get("debug_wait")); err != nil {
		return PolicyConfig{}, fmt.Errorf("debug_wait: %w", err)
	}
	pc.MinSamples = int(doc.Get("min_samples").Int())
	pc.StartOverCount = int(doc.Get("start_over_count").Int())

	if rule := doc.Get("rule"); rule.Exists() {
		pc.Rule = RuleConfig{
			Type:       RuleType(strings.ToLower(rule.Get("type").String())),
			Unit:       rule.Get("unit").Float(),
			Percentile: rule.Get("percentile").Float(),
		}
	}

	return pc, nil
}

func asDuration(result gjson.Result) (time.Duration, error) {
	switch result.Type {
	case gjson.Null:
		return 0, nil
	case gjson.String:
		d, err := time.ParseDuration(result.String())
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", result.String(), err)
		}
		return d, nil
	case gjson.Number:
		// Bare numbers are milliseconds.
		return time.Duration(result.Float() * float64(time.Millisecond)), nil
	default:
		return 0, fmt.Errorf("cannot interpret %q as a duration", result.Raw)
	}
}
