package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a
// Config. Flag values override config-file values.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfg := &Config{
		Concurrency: 1,
		Latency: LatencyConfig{
			Model:       LatencyModelConstant,
			Base:        50 * time.Millisecond,
			SpikeFactor: 10,
		},
		Tracing:    TracingConfig{Protocol: "grpc", SampleRate: 1.0},
		ConfigFile: configPath,
	}

	if configPath != "" {
		cfgViper := viper.New()
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := cfgViper.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		))); err != nil {
			return nil, fmt.Errorf("config file %q: %w", configPath, err)
		}
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	for i := range cfg.Policies {
		applyPolicyDefaults(&cfg.Policies[i])
	}
	cfg.OutputFile = strings.TrimSpace(cfg.OutputFile)

	return cfg, nil
}

// applyPolicyDefaults fills optional per-policy settings a definition left
// unset.
func applyPolicyDefaults(pc *PolicyConfig) {
	if pc.Rule.Type == "" {
		pc.Rule.Type = RuleTypeFixed
	}
	if pc.DebugWait == 0 {
		// Generous enough that a debugger pause never reads as a timeout.
		pc.DebugWait = time.Hour
	}
	if pc.MinSamples == 0 {
		pc.MinSamples = 10
	}
	if pc.StartOverCount == 0 {
		pc.StartOverCount = 1000
	}
}
