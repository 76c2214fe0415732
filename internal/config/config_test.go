package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/fusetune/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Policies: []config.PolicyConfig{
			{
				Name:           "svc",
				Initial:        time.Second,
				Rule:           config.RuleConfig{Type: config.RuleTypeSigma, Unit: 2},
				DebugWait:      time.Hour,
				MinSamples:     5,
				StartOverCount: 100,
			},
		},
		Concurrency: 1,
		Total:       100,
		Latency: config.LatencyConfig{
			Model: config.LatencyModelConstant,
			Base:  10 * time.Millisecond,
		},
		Tracing: config.TracingConfig{Protocol: "grpc", SampleRate: 1},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "no policies",
			mutate: func(c *config.Config) { c.Policies = nil },
			want:   "at least one policy",
		},
		{
			name: "zero initial",
			mutate: func(c *config.Config) {
				c.Policies[0].Initial = 0
			},
			want: "initial must be > 0",
		},
		{
			name: "sigma without unit",
			mutate: func(c *config.Config) {
				c.Policies[0].Rule = config.RuleConfig{Type: config.RuleTypeSigma}
			},
			want: "unit > 0",
		},
		{
			name: "percentile out of range",
			mutate: func(c *config.Config) {
				c.Policies[0].Rule = config.RuleConfig{Type: config.RuleTypePercentile, Percentile: 1.2}
			},
			want: "percentile must be within (0, 1)",
		},
		{
			name: "unknown rule type",
			mutate: func(c *config.Config) {
				c.Policies[0].Rule = config.RuleConfig{Type: "adaptive"}
			},
			want: "not supported",
		},
		{
			name: "duplicate policy names",
			mutate: func(c *config.Config) {
				c.Policies = append(c.Policies, c.Policies[0])
			},
			want: "duplicate name",
		},
		{
			name:   "zero concurrency",
			mutate: func(c *config.Config) { c.Concurrency = 0 },
			want:   "concurrency must be >= 1",
		},
		{
			name:   "negative rate",
			mutate: func(c *config.Config) { c.Rate = -1 },
			want:   "rate must be >= 0",
		},
		{
			name: "unbounded run",
			mutate: func(c *config.Config) {
				c.Total = 0
				c.Duration = 0
			},
			want: "either total or duration",
		},
		{
			name: "bad latency model",
			mutate: func(c *config.Config) {
				c.Latency.Model = "pareto"
			},
			want: "latency model",
		},
		{
			name: "bad spike chance",
			mutate: func(c *config.Config) {
				c.Latency.SpikeChance = 2
			},
			want: "spike_chance",
		},
		{
			name: "bad tracing sample rate",
			mutate: func(c *config.Config) {
				c.Tracing.SampleRate = 7
			},
			want: "sample_rate",
		},
		{
			name: "bad tracing protocol",
			mutate: func(c *config.Config) {
				c.Tracing.Protocol = "udp"
			},
			want: "tracing protocol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidationErrorCollectsAllIssues(t *testing.T) {
	cfg := validConfig()
	cfg.Concurrency = 0
	cfg.Rate = -1
	cfg.Policies[0].Initial = 0

	err := cfg.Validate()
	var verr config.ValidationError
	if ok := errorsAs(err, &verr); !ok {
		t.Fatalf("error is %T, want ValidationError", err)
	}
	if got := len(verr.Issues()); got != 3 {
		t.Errorf("collected %d issues, want 3: %v", got, verr.Issues())
	}
}

func errorsAs(err error, target *config.ValidationError) bool {
	v, ok := err.(config.ValidationError)
	if ok {
		*target = v
	}
	return ok
}

func TestTracingEnabled(t *testing.T) {
	tc := config.TracingConfig{}
	if tc.Enabled() {
		t.Error("empty endpoint reported enabled")
	}
	tc.Endpoint = "localhost:4317"
	if !tc.Enabled() {
		t.Error("configured endpoint reported disabled")
	}
}
