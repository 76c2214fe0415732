package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torosent/fusetune/internal/stats"
)

func TestProgressReporterBasic(t *testing.T) {
	collector := stats.NewCollector()
	for i := 0; i < 5; i++ {
		collector.Record(30*time.Millisecond, 100*time.Millisecond, false, nil)
	}

	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 100*time.Millisecond, &buf)
	if reporter == nil {
		t.Fatal("Expected non-nil reporter")
	}
	reporter.Stop()
}

func TestProgressReporterFormatting(t *testing.T) {
	collector := stats.NewCollector()
	collector.Record(50*time.Millisecond, 200*time.Millisecond, false, nil)

	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 20*time.Millisecond, &buf)
	reporter.Start()

	time.Sleep(100 * time.Millisecond)
	reporter.Stop()

	output := buf.String()
	if !strings.Contains(output, "Ops:") {
		t.Error("Expected 'Ops:' in progress output")
	}
	if !strings.Contains(output, "Timeouts:") {
		t.Error("Expected 'Timeouts:' in progress output")
	}
}

func TestProgressReporterStopIsIdempotent(t *testing.T) {
	collector := stats.NewCollector()
	reporter := NewProgressReporter(collector, 50*time.Millisecond, nil)
	reporter.Start()
	reporter.Stop()
	reporter.Stop()
}
