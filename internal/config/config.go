package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the fully merged configuration for one fusetune run.
type Config struct {
	Policies    []PolicyConfig `mapstructure:"policies" yaml:"policies"`
	Concurrency int            `mapstructure:"concurrency" yaml:"concurrency"`
	Rate        int            `mapstructure:"rate" yaml:"rate"`
	Duration    time.Duration  `mapstructure:"duration" yaml:"duration"`
	Total       int            `mapstructure:"total" yaml:"total"`
	Debug       bool           `mapstructure:"debug" yaml:"debug"`
	Seed        int64          `mapstructure:"seed" yaml:"seed"`
	JSONOutput  bool           `mapstructure:"json_output" yaml:"json_output"`
	OutputFile  string         `mapstructure:"output_file" yaml:"output_file"`
	Thresholds  []string       `mapstructure:"thresholds" yaml:"thresholds"`
	Latency     LatencyConfig  `mapstructure:"latency" yaml:"latency"`
	Tracing     TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
	ConfigFile  string         `mapstructure:"-" yaml:"-"`
	DumpConfig  bool           `mapstructure:"-" yaml:"-"`
}

// RuleType selects the timeout strategy a policy uses.
type RuleType string

const (
	RuleTypeFixed      RuleType = "fixed"
	RuleTypeSigma      RuleType = "sigma"
	RuleTypePercentile RuleType = "percentile"
)

// RuleConfig describes how a policy derives its recommendations.
type RuleConfig struct {
	Type       RuleType `mapstructure:"type" yaml:"type"`
	Unit       float64  `mapstructure:"unit" yaml:"unit,omitempty"`             // sigma: stddev multiples above the mean
	Percentile float64  `mapstructure:"percentile" yaml:"percentile,omitempty"` // percentile: target quantile in (0, 1)
}

// PolicyConfig describes one named timeout policy under test.
type PolicyConfig struct {
	Name           string        `mapstructure:"name" yaml:"name"`
	Initial        time.Duration `mapstructure:"initial" yaml:"initial"`
	Rule           RuleConfig    `mapstructure:"rule" yaml:"rule"`
	DebugWait      time.Duration `mapstructure:"debug_wait" yaml:"debug_wait"`
	MinSamples     int           `mapstructure:"min_samples" yaml:"min_samples"`
	StartOverCount int           `mapstructure:"start_over_count" yaml:"start_over_count"`
}

// LatencyModel names a synthetic latency distribution for the simulator.
type LatencyModel string

const (
	LatencyModelConstant LatencyModel = "constant"
	LatencyModelNormal   LatencyModel = "normal"
	LatencyModelSpike    LatencyModel = "spike"
)

// LatencyConfig shapes the synthetic workload.
type LatencyConfig struct {
	Model       LatencyModel  `mapstructure:"model" yaml:"model"`
	Base        time.Duration `mapstructure:"base" yaml:"base"`
	Jitter      time.Duration `mapstructure:"jitter" yaml:"jitter"`
	SpikeChance float64       `mapstructure:"spike_chance" yaml:"spike_chance"`
	SpikeFactor float64       `mapstructure:"spike_factor" yaml:"spike_factor"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Protocol    string  `mapstructure:"protocol" yaml:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Enabled reports whether an exporter endpoint was configured.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if len(c.Policies) == 0 {
		issues = append(issues, "at least one policy is required (use --help for usage information)")
	}

	seen := make(map[string]bool, len(c.Policies))
	for idx, pc := range c.Policies {
		issues = append(issues, validatePolicyConfig(idx, pc)...)
		name := strings.TrimSpace(pc.Name)
		if name != "" {
			if seen[name] {
				issues = append(issues, fmt.Sprintf("policies[%d]: duplicate name %q", idx, name))
			}
			seen[name] = true
		}
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Total < 0 {
		issues = append(issues, "total must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Total == 0 && c.Duration == 0 {
		issues = append(issues, "either total or duration must bound the run")
	}

	issues = append(issues, validateLatencyConfig(c.Latency)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validatePolicyConfig(idx int, pc PolicyConfig) []string {
	var issues []string

	if pc.Initial <= 0 {
		issues = append(issues, fmt.Sprintf("policies[%d]: initial must be > 0", idx))
	}
	if pc.DebugWait < 0 {
		issues = append(issues, fmt.Sprintf("policies[%d]: debug_wait must be >= 0", idx))
	}
	if pc.MinSamples < 0 {
		issues = append(issues, fmt.Sprintf("policies[%d]: min_samples must be >= 0", idx))
	}
	if pc.StartOverCount < 0 {
		issues = append(issues, fmt.Sprintf("policies[%d]: start_over_count must be >= 0", idx))
	}

	typeLabel := strings.TrimSpace(string(pc.Rule.Type))
	switch RuleType(strings.ToLower(typeLabel)) {
	case RuleTypeFixed, "":
	case RuleTypeSigma:
		if pc.Rule.Unit <= 0 {
			issues = append(issues, fmt.Sprintf("policies[%d]: sigma rule requires unit > 0", idx))
		}
	case RuleTypePercentile:
		if pc.Rule.Percentile <= 0 || pc.Rule.Percentile >= 1 {
			issues = append(issues, fmt.Sprintf("policies[%d]: percentile must be within (0, 1)", idx))
		}
	default:
		issues = append(issues, fmt.Sprintf("policies[%d]: rule type %q is not supported", idx, typeLabel))
	}

	return issues
}

func validateLatencyConfig(lc LatencyConfig) []string {
	var issues []string

	model := lc.Model
	if model == "" {
		model = LatencyModelConstant
	}
	switch model {
	case LatencyModelConstant, LatencyModelNormal, LatencyModelSpike:
	default:
		issues = append(issues, fmt.Sprintf("latency model %q is not supported", lc.Model))
	}

	if lc.Base <= 0 {
		issues = append(issues, "latency base must be > 0")
	}
	if lc.Jitter < 0 {
		issues = append(issues, "latency jitter must be >= 0")
	}
	if lc.SpikeChance < 0 || lc.SpikeChance > 1 {
		issues = append(issues, "latency spike_chance must be within [0, 1]")
	}
	if lc.SpikeFactor < 0 {
		issues = append(issues, "latency spike_factor must be >= 0")
	}

	return issues
}

func validateTracingConfig(tc TracingConfig) []string {
	var issues []string

	if tc.SampleRate < 0 || tc.SampleRate > 1 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(strings.TrimSpace(tc.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported (use \"grpc\" or \"http\")", tc.Protocol))
	}

	return issues
}
