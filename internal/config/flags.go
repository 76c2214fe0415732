package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fusetune",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Policy flags
	flags.StringSlice("policy", nil, "Inline policy definition as JSON (repeatable, e.g. '{\"name\":\"svc\",\"initial\":\"1s\",\"rule\":{\"type\":\"sigma\",\"unit\":2}}')")
	flags.Bool("debug", false, "Force every policy to its debug wait, ignoring configured rules")

	// Simulation control flags
	flags.IntP("concurrency", "c", 1, "Number of concurrent workers")
	flags.IntP("rate", "r", 0, "Operations per second limit (0 means unlimited)")
	flags.DurationP("duration", "d", 0, "How long to run the simulation (e.g. 30s, 1m)")
	flags.IntP("total", "t", 0, "Total number of operations to run (0 means unlimited)")
	flags.Int64("seed", 0, "Random seed for the latency sampler (0 means derive from time)")

	// Latency model flags
	flags.String("latency-model", string(LatencyModelConstant), "Synthetic latency model: 'constant', 'normal' or 'spike'")
	flags.Duration("latency-base", 50*time.Millisecond, "Base synthetic latency")
	flags.Duration("latency-jitter", 0, "Stddev of latency noise for normal/spike models")
	flags.Float64("latency-spike-chance", 0, "Probability a sample spikes (spike model)")
	flags.Float64("latency-spike-factor", 10, "Multiplier applied to spike samples")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.String("output", "", "Write the run report to the given file path")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
	flags.Bool("dump-config", false, "Print the effective configuration as YAML and exit")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Outcome assertions (repeatable, e.g., 'op_duration:p99 < 500')")

	// Tracing flags
	flags.String("trace-endpoint", "", "OTLP endpoint for trace export")
	flags.String("trace-protocol", "grpc", "OTLP transport: 'grpc' or 'http'")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling rate between 0.0 and 1.0")
	flags.Bool("trace-insecure", false, "Skip TLS verification for the OTLP exporter")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config,
// overriding values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("policy") {
		vals, err := fs.GetStringSlice("policy")
		if err != nil {
			return err
		}
		for i, raw := range vals {
			pc, err := parsePolicyJSON(raw)
			if err != nil {
				return fmt.Errorf("policy[%d]: %w", i, err)
			}
			cfg.Policies = append(cfg.Policies, pc)
		}
	}
	if fs.Changed("debug") {
		val, err := fs.GetBool("debug")
		if err != nil {
			return err
		}
		cfg.Debug = val
	}
	if fs.Changed("concurrency") {
		val, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("total") {
		val, err := fs.GetInt("total")
		if err != nil {
			return err
		}
		cfg.Total = val
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("latency-model") {
		val, err := fs.GetString("latency-model")
		if err != nil {
			return err
		}
		cfg.Latency.Model = LatencyModel(val)
	}
	if fs.Changed("latency-base") {
		val, err := fs.GetDuration("latency-base")
		if err != nil {
			return err
		}
		cfg.Latency.Base = val
	}
	if fs.Changed("latency-jitter") {
		val, err := fs.GetDuration("latency-jitter")
		if err != nil {
			return err
		}
		cfg.Latency.Jitter = val
	}
	if fs.Changed("latency-spike-chance") {
		val, err := fs.GetFloat64("latency-spike-chance")
		if err != nil {
			return err
		}
		cfg.Latency.SpikeChance = val
	}
	if fs.Changed("latency-spike-factor") {
		val, err := fs.GetFloat64("latency-spike-factor")
		if err != nil {
			return err
		}
		cfg.Latency.SpikeFactor = val
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.OutputFile = val
	}
	if fs.Changed("dump-config") {
		val, err := fs.GetBool("dump-config")
		if err != nil {
			return err
		}
		cfg.DumpConfig = val
	}
	if fs.Changed("threshold") {
		vals, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = append(cfg.Thresholds, vals...)
	}
	if fs.Changed("trace-endpoint") {
		val, err := fs.GetString("trace-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = val
	}
	if fs.Changed("trace-protocol") {
		val, err := fs.GetString("trace-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = val
	}
	if fs.Changed("trace-sample-rate") {
		val, err := fs.GetFloat64("trace-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("trace-insecure") {
		val, err := fs.GetBool("trace-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}

	return nil
}
