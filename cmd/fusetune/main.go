package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/fusetune/internal/config"
	"github.com/torosent/fusetune/internal/output"
	"github.com/torosent/fusetune/internal/policy"
	"github.com/torosent/fusetune/internal/simulate"
	"github.com/torosent/fusetune/internal/stats"
	"github.com/torosent/fusetune/internal/threshold"
	"github.com/torosent/fusetune/internal/tracing"
)

const progressInterval = time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.DumpConfig {
		return dumpConfig(os.Stdout, cfg)
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	registry := policy.NewRegistry()
	policies, err := buildPolicies(cfg, registry)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sampler, err := simulate.NewLatencySampler(simulate.LatencyOptions{
		Model:       simulate.LatencyModel(cfg.Latency.Model),
		Base:        cfg.Latency.Base,
		Jitter:      cfg.Latency.Jitter,
		SpikeChance: cfg.Latency.SpikeChance,
		SpikeFactor: cfg.Latency.SpikeFactor,
		Seed:        seed,
	})
	if err != nil {
		return err
	}

	collector := stats.NewCollector()
	op := &policyOperation{
		policies:  policies,
		sampler:   sampler,
		collector: collector,
		provider:  provider,
	}

	r := simulate.New(simulate.Options{
		Concurrency:   cfg.Concurrency,
		TotalOps:      cfg.Total,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		Operation:     op,
	})

	var progress *output.ProgressReporter
	if !cfg.JSONOutput {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
	}

	started := time.Now()
	result := r.Run(ctx)
	report := collector.Report(result.Duration)

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}

	runReport := output.NewRunReport(started, report, policies)
	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, runReport); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, runReport)
	}
	if cfg.OutputFile != "" {
		if err := runReport.WriteFile(cfg.OutputFile, cfg.JSONOutput); err != nil {
			return err
		}
	}

	if failed := reportThresholds(os.Stdout, thresholds, report); failed > 0 {
		return fmt.Errorf("%d of %d thresholds failed", failed, len(thresholds))
	}
	return nil
}

// buildPolicies constructs one registered policy per configured definition.
func buildPolicies(cfg *config.Config, registry *policy.Registry) ([]policy.Policy, error) {
	policies := make([]policy.Policy, 0, len(cfg.Policies))
	for idx, pc := range cfg.Policies {
		rule, err := toPolicyRule(pc.Rule)
		if err != nil {
			return nil, fmt.Errorf("policies[%d]: %w", idx, err)
		}
		p, err := policy.New(policy.Settings{
			Name:           pc.Name,
			Initial:        pc.Initial,
			Rule:           rule,
			DebugWait:      pc.DebugWait,
			MinSamples:     pc.MinSamples,
			StartOverCount: pc.StartOverCount,
			Debug:          cfg.Debug,
			Registry:       registry,
		})
		if err != nil {
			return nil, fmt.Errorf("policies[%d]: %w", idx, err)
		}
		policies = append(policies, p)
	}
	return policies, nil
}

func toPolicyRule(rc config.RuleConfig) (policy.Rule, error) {
	switch rc.Type {
	case config.RuleTypeFixed, "":
		return policy.Fixed(), nil
	case config.RuleTypeSigma:
		return policy.Sigma(rc.Unit), nil
	case config.RuleTypePercentile:
		return policy.Percentile(rc.Percentile)
	default:
		return policy.Rule{}, fmt.Errorf("rule type %q is not supported", rc.Type)
	}
}

// policyOperation simulates one operation per permit: it draws a synthetic
// latency, runs it under a transaction of the next policy in round-robin
// order, and feeds the outcome back into the collector.
type policyOperation struct {
	policies  []policy.Policy
	sampler   simulate.LatencySampler
	collector *stats.Collector
	provider  *tracing.Provider
	next      atomic.Uint64
}

func (o *policyOperation) Do(ctx context.Context) error {
	p := o.policies[(o.next.Add(1)-1)%uint64(len(o.policies))]

	tx := p.Transaction()
	wait := tx.WaitTime()
	latency := o.sampler.Sample()

	spanCtx, span := tracing.StartOperationSpan(ctx, o.provider.Tracer(), p.Metrics().Name, wait)
	start := time.Now()
	if err := sleep(spanCtx, latency); err != nil {
		// Cancelled mid-operation: not a completed sample.
		tracing.EndOperationSpan(span, time.Since(start), false, err)
		return nil
	}
	elapsed := time.Since(start)
	timedOut := elapsed > wait
	tx.End()

	o.collector.Record(elapsed, wait, timedOut, nil)
	tracing.EndOperationSpan(span, elapsed, timedOut, nil)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func dumpConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("dump config: %w", err)
	}
	return enc.Close()
}

func reportThresholds(w io.Writer, thresholds []threshold.Threshold, rep stats.Report) int {
	if len(thresholds) == 0 {
		return 0
	}

	evaluator := threshold.NewEvaluator(thresholds)
	failed := 0
	fmt.Fprintln(w, "\nThresholds:")
	for _, result := range evaluator.Evaluate(rep) {
		status := "PASS"
		if !result.Pass {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(w, "  [%s] %s (actual %.2f)\n", status, result.Threshold.Raw, result.Actual)
	}
	return failed
}
