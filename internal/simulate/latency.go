package simulate

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// LatencySampler produces synthetic elapsed times for simulated operations.
// Implementations are safe for concurrent use.
type LatencySampler interface {
	Sample() time.Duration
}

// LatencyModel names a synthetic latency distribution.
type LatencyModel string

const (
	// LatencyModelConstant yields the base latency every time.
	LatencyModelConstant LatencyModel = "constant"
	// LatencyModelNormal jitters the base latency with normally
	// distributed noise.
	LatencyModelNormal LatencyModel = "normal"
	// LatencyModelSpike behaves like normal but occasionally multiplies
	// the sample to mimic a degraded downstream.
	LatencyModelSpike LatencyModel = "spike"
)

// LatencyOptions configure a sampler.
type LatencyOptions struct {
	Model       LatencyModel
	Base        time.Duration // center of the distribution
	Jitter      time.Duration // stddev of the noise for normal/spike
	SpikeChance float64       // probability a spike sample is drawn
	SpikeFactor float64       // multiplier applied to spike samples
	Seed        int64         // deterministic source for reproducible runs
}

// NewLatencySampler builds the sampler the options select.
func NewLatencySampler(opt LatencyOptions) (LatencySampler, error) {
	if opt.Base <= 0 {
		return nil, fmt.Errorf("latency base must be > 0, got %s", opt.Base)
	}

	model := opt.Model
	if model == "" {
		model = LatencyModelConstant
	}

	switch model {
	case LatencyModelConstant:
		return constantLatency(opt.Base), nil
	case LatencyModelNormal:
		if opt.Jitter < 0 {
			return nil, fmt.Errorf("latency jitter must be >= 0, got %s", opt.Jitter)
		}
		return &randomLatency{
			base:   opt.Base,
			jitter: opt.Jitter,
			rnd:    rand.New(rand.NewSource(opt.Seed)),
		}, nil
	case LatencyModelSpike:
		if opt.Jitter < 0 {
			return nil, fmt.Errorf("latency jitter must be >= 0, got %s", opt.Jitter)
		}
		if opt.SpikeChance < 0 || opt.SpikeChance > 1 {
			return nil, fmt.Errorf("spike chance must be within [0, 1], got %g", opt.SpikeChance)
		}
		factor := opt.SpikeFactor
		if factor <= 0 {
			factor = 10
		}
		return &randomLatency{
			base:        opt.Base,
			jitter:      opt.Jitter,
			spikeChance: opt.SpikeChance,
			spikeFactor: factor,
			rnd:         rand.New(rand.NewSource(opt.Seed)),
		}, nil
	default:
		return nil, fmt.Errorf("latency model %q is not supported", model)
	}
}

type constantLatency time.Duration

func (c constantLatency) Sample() time.Duration {
	return time.Duration(c)
}

// randomLatency draws base + N(0, jitter) samples, optionally multiplied by
// spikeFactor with probability spikeChance. The shared rand source is
// mutex-guarded so workers can sample concurrently.
type randomLatency struct {
	mu          sync.Mutex
	base        time.Duration
	jitter      time.Duration
	spikeChance float64
	spikeFactor float64
	rnd         *rand.Rand
}

func (r *randomLatency) Sample() time.Duration {
	r.mu.Lock()
	noise := r.rnd.NormFloat64()
	spike := r.spikeChance > 0 && r.rnd.Float64() < r.spikeChance
	r.mu.Unlock()

	sample := float64(r.base) + noise*float64(r.jitter)
	if spike {
		sample *= r.spikeFactor
	}
	if sample < 0 {
		return 0
	}
	return time.Duration(sample)
}
