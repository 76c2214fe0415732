package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/torosent/fusetune/internal/policy"
	"github.com/torosent/fusetune/internal/stats"
)

// PolicySummary captures the end-of-run state of a single timeout policy.
type PolicySummary struct {
	Name          string  `json:"name"`
	InitialMs     float64 `json:"initial_ms"`
	CurrentWaitMs float64 `json:"current_wait_ms"`
	Samples       int     `json:"samples"`
	Timeouts      int     `json:"timeouts"`
	TimeoutRate   float64 `json:"timeout_rate"`
	MeanMs        float64 `json:"mean_ms"`
	StddevMs      float64 `json:"stddev_ms"`
}

// RunReport is the full result of a simulation run.
type RunReport struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Metrics   stats.Report    `json:"metrics"`
	Policies  []PolicySummary `json:"policies"`
}

// NewRunReport assembles a report from the aggregated metrics and the
// policies that drove the run.
func NewRunReport(startedAt time.Time, metrics stats.Report, policies []policy.Policy) *RunReport {
	report := &RunReport{
		ID:        ulid.Make().String(),
		StartedAt: startedAt.UTC(),
		Metrics:   metrics,
	}
	for _, p := range policies {
		report.Policies = append(report.Policies, summarize(p))
	}
	sort.Slice(report.Policies, func(i, j int) bool {
		return report.Policies[i].Name < report.Policies[j].Name
	})
	return report
}

func summarize(p policy.Policy) PolicySummary {
	snap := p.Metrics()
	return PolicySummary{
		Name:          snap.Name,
		InitialMs:     ms(snap.Initial),
		CurrentWaitMs: ms(p.WaitTime()),
		Samples:       snap.TotalCount,
		Timeouts:      snap.TotalTimeoutCount,
		TimeoutRate:   snap.TimeoutRate(),
		MeanMs:        snap.AverageTime / float64(time.Millisecond),
		StddevMs:      snap.StandardDeviation / float64(time.Millisecond),
	}
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, report *RunReport) {
	m := report.Metrics
	fmt.Fprintln(w, "\n--- Simulation Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", report.ID)
	fmt.Fprintf(w, "Total Operations:  %d\n", m.Total)
	fmt.Fprintf(w, "Completed:         %d\n", m.Completions)
	fmt.Fprintf(w, "Timed Out:         %d (%.1f%%)\n", m.Timeouts, m.TimeoutRate*100)
	fmt.Fprintf(w, "Failed:            %d\n", m.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", m.Duration)
	fmt.Fprintf(w, "Ops/sec:           %.2f\n", m.OpsPerSec)
	fmt.Fprintln(w, "\nOperation Latency:")
	fmt.Fprintf(w, "  Min:             %s\n", m.MinElapsed)
	fmt.Fprintf(w, "  Max:             %s\n", m.MaxElapsed)
	fmt.Fprintf(w, "  Mean:            %s\n", m.MeanElapsed)
	fmt.Fprintf(w, "  P50:             %s\n", m.P50Elapsed)
	fmt.Fprintf(w, "  P90:             %s\n", m.P90Elapsed)
	fmt.Fprintf(w, "  P99:             %s\n", m.P99Elapsed)
	fmt.Fprintln(w, "\nRecommended Waits:")
	fmt.Fprintf(w, "  Mean:            %s\n", m.MeanWait)
	fmt.Fprintf(w, "  P50:             %s\n", m.P50Wait)
	fmt.Fprintf(w, "  P99:             %s\n", m.P99Wait)

	if len(report.Policies) > 0 {
		fmt.Fprintln(w, "\nPolicy Breakdown:")
		for _, ps := range report.Policies {
			fmt.Fprintf(
				w,
				"  - %s: wait=%.1fms (initial %.1fms), samples=%d, timeouts=%d (%.1f%%), mean=%.1fms, stddev=%.1fms\n",
				ps.Name,
				ps.CurrentWaitMs,
				ps.InitialMs,
				ps.Samples,
				ps.Timeouts,
				ps.TimeoutRate*100,
				ps.MeanMs,
				ps.StddevMs,
			)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report *RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteFile renders the report to the given path, holding a sibling lock
// file so concurrent runs pointed at the same path never interleave writes.
func (r *RunReport) WriteFile(path string, asJSON bool) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file %q: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file %q: %w", path, err)
	}
	defer f.Close()

	if asJSON {
		if err := PrintJSONReport(f, r); err != nil {
			return fmt.Errorf("write report file %q: %w", path, err)
		}
		return nil
	}
	PrintReport(f, r)
	return nil
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
