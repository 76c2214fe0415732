package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/fusetune/internal/stats"
)

// Threshold represents an assertion over a simulation outcome that can pass
// or fail.
type Threshold struct {
	Metric    string  // e.g., "op_duration", "op_timeouts"
	Aggregate string  // e.g., "p95", "p99", "avg", "max", "rate"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against an aggregated report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided report.
func (e *Evaluator) Evaluate(rep stats.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, rep))
	}
	return results
}

func (e *Evaluator) evaluateOne(t Threshold, rep stats.Report) Result {
	actual, err := extractMetricValue(t, rep)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "op_duration:p99 < 500"    (elapsed-time percentile in ms)
// - "op_duration:avg < 200"    (average elapsed time in ms)
// - "op_timeouts:rate < 0.01"  (budget-overrun rate as decimal)
// - "op_failed:count < 10"     (failure count)
// - "wait_time:p99 < 800"      (recommended budget percentile in ms)
// - "ops:rate > 100"           (operations per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	// Pattern: metric:aggregate operator value
	// e.g., "op_duration:p99 < 500"
	pattern := regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'op_duration:p99 < 500')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: op_duration, wait_time, op_timeouts, op_failed, ops)", metric)
	}
	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: p50, p90, p95, p99, avg, min, max, rate, count)", aggregate)
	}
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func isValidMetric(metric string) bool {
	switch metric {
	case "op_duration", "wait_time", "op_timeouts", "op_failed", "ops":
		return true
	}
	return false
}

func isValidAggregate(aggregate string) bool {
	switch aggregate {
	case "p50", "p90", "p95", "p99", "avg", "min", "max", "rate", "count":
		return true
	}
	return false
}

func isValidOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}

func extractMetricValue(t Threshold, rep stats.Report) (float64, error) {
	switch t.Metric {
	case "op_duration":
		return extractDurationMetric(t.Aggregate, rep)
	case "wait_time":
		return extractWaitMetric(t.Aggregate, rep)
	case "op_timeouts":
		return extractTimeoutMetric(t.Aggregate, rep)
	case "op_failed":
		return extractFailureMetric(t.Aggregate, rep)
	case "ops":
		return extractOpsMetric(t.Aggregate, rep)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractDurationMetric(aggregate string, rep stats.Report) (float64, error) {
	switch aggregate {
	case "p50":
		return rep.P50ElapsedMs, nil
	case "p90":
		return rep.P90ElapsedMs, nil
	case "p95":
		// Approximate p95 from p90 and p99
		return (rep.P90ElapsedMs + rep.P99ElapsedMs) / 2, nil
	case "p99":
		return rep.P99ElapsedMs, nil
	case "avg", "mean":
		return rep.MeanElapsedMs, nil
	case "min":
		return rep.MinElapsedMs, nil
	case "max":
		return rep.MaxElapsedMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for op_duration", aggregate)
	}
}

func extractWaitMetric(aggregate string, rep stats.Report) (float64, error) {
	switch aggregate {
	case "p50":
		return rep.P50WaitMs, nil
	case "p99":
		return rep.P99WaitMs, nil
	case "avg", "mean":
		return rep.MeanWaitMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for wait_time (use 'p50', 'p99' or 'avg')", aggregate)
	}
}

func extractTimeoutMetric(aggregate string, rep stats.Report) (float64, error) {
	switch aggregate {
	case "count":
		return float64(rep.Timeouts), nil
	case "rate":
		return rep.TimeoutRate, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for op_timeouts (use 'count' or 'rate')", aggregate)
	}
}

func extractFailureMetric(aggregate string, rep stats.Report) (float64, error) {
	switch aggregate {
	case "count":
		return float64(rep.Failures), nil
	case "rate":
		if rep.Total == 0 {
			return 0, nil
		}
		return float64(rep.Failures) / float64(rep.Total), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for op_failed (use 'count' or 'rate')", aggregate)
	}
}

func extractOpsMetric(aggregate string, rep stats.Report) (float64, error) {
	switch aggregate {
	case "count":
		return float64(rep.Total), nil
	case "rate":
		return rep.OpsPerSec, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for ops (use 'count' or 'rate')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
