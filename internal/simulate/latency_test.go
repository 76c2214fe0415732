package simulate

import (
	"testing"
	"time"
)

func TestNewLatencySamplerValidation(t *testing.T) {
	tests := []struct {
		name    string
		opt     LatencyOptions
		wantErr bool
	}{
		{name: "constant", opt: LatencyOptions{Model: LatencyModelConstant, Base: time.Millisecond}},
		{name: "default model is constant", opt: LatencyOptions{Base: time.Millisecond}},
		{name: "normal", opt: LatencyOptions{Model: LatencyModelNormal, Base: time.Millisecond, Jitter: time.Millisecond}},
		{name: "spike", opt: LatencyOptions{Model: LatencyModelSpike, Base: time.Millisecond, SpikeChance: 0.1}},
		{name: "zero base", opt: LatencyOptions{Model: LatencyModelConstant}, wantErr: true},
		{name: "negative jitter", opt: LatencyOptions{Model: LatencyModelNormal, Base: time.Millisecond, Jitter: -time.Millisecond}, wantErr: true},
		{name: "spike chance above one", opt: LatencyOptions{Model: LatencyModelSpike, Base: time.Millisecond, SpikeChance: 1.5}, wantErr: true},
		{name: "unknown model", opt: LatencyOptions{Model: "pareto", Base: time.Millisecond}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLatencySampler(tt.opt)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLatencySampler error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConstantSampler(t *testing.T) {
	s, err := NewLatencySampler(LatencyOptions{Base: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewLatencySampler: %v", err)
	}
	for i := 0; i < 10; i++ {
		if got := s.Sample(); got != 5*time.Millisecond {
			t.Fatalf("Sample = %s, want 5ms", got)
		}
	}
}

func TestNormalSamplerStaysNonNegative(t *testing.T) {
	s, err := NewLatencySampler(LatencyOptions{
		Model:  LatencyModelNormal,
		Base:   time.Millisecond,
		Jitter: 10 * time.Millisecond, // noise dwarfs the base, forcing clamping
		Seed:   1,
	})
	if err != nil {
		t.Fatalf("NewLatencySampler: %v", err)
	}
	for i := 0; i < 1000; i++ {
		if got := s.Sample(); got < 0 {
			t.Fatalf("Sample = %s, want >= 0", got)
		}
	}
}

func TestSeedReproducesSamples(t *testing.T) {
	opt := LatencyOptions{
		Model:  LatencyModelSpike,
		Base:   10 * time.Millisecond,
		Jitter: 2 * time.Millisecond,
		SpikeChance: 0.2,
		SpikeFactor: 5,
		Seed:   42,
	}

	a, err := NewLatencySampler(opt)
	if err != nil {
		t.Fatalf("NewLatencySampler: %v", err)
	}
	b, err := NewLatencySampler(opt)
	if err != nil {
		t.Fatalf("NewLatencySampler: %v", err)
	}

	for i := 0; i < 100; i++ {
		if x, y := a.Sample(), b.Sample(); x != y {
			t.Fatalf("sample %d diverged: %s vs %s", i, x, y)
		}
	}
}
