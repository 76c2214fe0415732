package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records completed simulated operations in a thread-safe manner.
// It tracks both the observed elapsed times and the wait budgets the policies
// handed out, so a report can show how tightly the recommendations follow the
// workload.
type Collector struct {
	mu          sync.Mutex
	elapsedHist *hdrhistogram.Histogram
	waitHist    *hdrhistogram.Histogram
	timeouts    int64
	failures    int64
	completions int64
	minElapsed  time.Duration
	maxElapsed  time.Duration
	sumElapsed  time.Duration
	start       time.Time
}

// Report represents aggregated simulation metrics.
type Report struct {
	Total       int64         `json:"total"`
	Completions int64         `json:"completions"`
	Timeouts    int64         `json:"timeouts"`
	Failures    int64         `json:"failures"`
	TimeoutRate float64       `json:"timeout_rate"`
	Duration    time.Duration `json:"-"`
	OpsPerSec   float64       `json:"ops_per_sec"`

	MinElapsed  time.Duration `json:"-"`
	MaxElapsed  time.Duration `json:"-"`
	MeanElapsed time.Duration `json:"-"`
	P50Elapsed  time.Duration `json:"-"`
	P90Elapsed  time.Duration `json:"-"`
	P99Elapsed  time.Duration `json:"-"`

	MeanWait time.Duration `json:"-"`
	P50Wait  time.Duration `json:"-"`
	P99Wait  time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	MinElapsedMs  float64 `json:"min_elapsed_ms"`
	MaxElapsedMs  float64 `json:"max_elapsed_ms"`
	MeanElapsedMs float64 `json:"mean_elapsed_ms"`
	P50ElapsedMs  float64 `json:"p50_elapsed_ms"`
	P90ElapsedMs  float64 `json:"p90_elapsed_ms"`
	P99ElapsedMs  float64 `json:"p99_elapsed_ms"`
	MeanWaitMs    float64 `json:"mean_wait_ms"`
	P50WaitMs     float64 `json:"p50_wait_ms"`
	P99WaitMs     float64 `json:"p99_wait_ms"`
	DurationMs    float64 `json:"duration_ms"`
}

func NewCollector() *Collector {
	// Track durations from 1µs up to 60s with 3 significant figures.
	return &Collector{
		elapsedHist: hdrhistogram.New(1, 60_000_000, 3),
		waitHist:    hdrhistogram.New(1, 60_000_000, 3),
		start:       time.Now(),
	}
}

// Record folds a single completed operation into the collector.
// timedOut marks operations that ran past their wait budget; err marks
// failures unrelated to the budget.
func (c *Collector) Record(elapsed, wait time.Duration, timedOut bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elapsed > 0 {
		recordClamped(c.elapsedHist, elapsed)
	}
	if wait > 0 {
		recordClamped(c.waitHist, wait)
	}
	c.sumElapsed += elapsed

	if c.minElapsed == 0 || elapsed < c.minElapsed {
		c.minElapsed = elapsed
	}
	if elapsed > c.maxElapsed {
		c.maxElapsed = elapsed
	}

	switch {
	case timedOut:
		c.timeouts++
	case err != nil:
		c.failures++
	default:
		c.completions++
	}
}

func recordClamped(h *hdrhistogram.Histogram, d time.Duration) {
	us := d.Microseconds()
	if us < h.LowestTrackableValue() {
		us = h.LowestTrackableValue()
	}
	if us > h.HighestTrackableValue() {
		us = h.HighestTrackableValue()
	}
	_ = h.RecordValue(us)
}

// Report computes and returns current aggregated statistics.
func (c *Collector) Report(elapsed time.Duration) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.completions + c.timeouts + c.failures
	rep := Report{
		Total:       total,
		Completions: c.completions,
		Timeouts:    c.timeouts,
		Failures:    c.failures,
		MinElapsed:  c.minElapsed,
		MaxElapsed:  c.maxElapsed,
	}

	if total > 0 {
		rep.MeanElapsed = time.Duration(int64(c.sumElapsed) / total)
		rep.TimeoutRate = float64(c.timeouts) / float64(total)
	}

	if c.elapsedHist.TotalCount() > 0 {
		rep.P50Elapsed = time.Duration(c.elapsedHist.ValueAtQuantile(50)) * time.Microsecond
		rep.P90Elapsed = time.Duration(c.elapsedHist.ValueAtQuantile(90)) * time.Microsecond
		rep.P99Elapsed = time.Duration(c.elapsedHist.ValueAtQuantile(99)) * time.Microsecond
	}
	if c.waitHist.TotalCount() > 0 {
		rep.MeanWait = time.Duration(c.waitHist.Mean()) * time.Microsecond
		rep.P50Wait = time.Duration(c.waitHist.ValueAtQuantile(50)) * time.Microsecond
		rep.P99Wait = time.Duration(c.waitHist.ValueAtQuantile(99)) * time.Microsecond
	}

	rep.MinElapsedMs = ms(rep.MinElapsed)
	rep.MaxElapsedMs = ms(rep.MaxElapsed)
	rep.MeanElapsedMs = ms(rep.MeanElapsed)
	rep.P50ElapsedMs = ms(rep.P50Elapsed)
	rep.P90ElapsedMs = ms(rep.P90Elapsed)
	rep.P99ElapsedMs = ms(rep.P99Elapsed)
	rep.MeanWaitMs = ms(rep.MeanWait)
	rep.P50WaitMs = ms(rep.P50Wait)
	rep.P99WaitMs = ms(rep.P99Wait)

	rep.Duration = elapsed
	rep.DurationMs = ms(elapsed)
	if elapsed > 0 && total > 0 {
		rep.OpsPerSec = float64(total) / elapsed.Seconds()
	}

	return rep
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
