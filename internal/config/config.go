// Package config loads pipeline settings from an optional YAML file and
// TALLY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/tally/internal/output"
	"github.com/dreamware/tally/internal/replica"
)

// ErrInvalidConfig is returned by Validate and by loaders on bad values
var ErrInvalidConfig = errors.New("invalid config")

// Shuffle strategies
const (
	StrategySequential = "sequential"
	StrategyConcurrent = "concurrent"
)

// Config holds every recognized pipeline option. Zero numeric values select
// the package defaults of the component they configure.
type Config struct {
	Input        string `yaml:"input"`         // Input descriptor, "" or "default"
	Parallelism  int    `yaml:"parallelism"`   // Worker count, 0 = 2x CPUs
	Replicas     int    `yaml:"replicas"`      // Replicas per partition stream
	ReliableFrom int    `yaml:"reliable_from"` // First always-healthy replica
	Strategy     string `yaml:"strategy"`      // "sequential" or "concurrent"
	Stripes      int    `yaml:"stripes"`       // Lock stripes for the concurrent shuffle, 0 = single lock
	Format       string `yaml:"format"`        // "text", "json" or "yaml"
	OutageWindow int    `yaml:"outage_window"` // > 0 switches to the outage health model
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Input:        "default",
		Replicas:     3,
		ReliableFrom: 2,
		Strategy:     StrategySequential,
		Format:       string(output.FormatText),
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv overrides fields of base from TALLY_* environment variables
func FromEnv(base Config) (Config, error) {
	cfg := base
	cfg.Input = getenv("TALLY_INPUT", cfg.Input)
	cfg.Strategy = getenv("TALLY_STRATEGY", cfg.Strategy)
	cfg.Format = getenv("TALLY_FORMAT", cfg.Format)

	ints := []struct {
		key string
		dst *int
	}{
		{"TALLY_PARALLELISM", &cfg.Parallelism},
		{"TALLY_REPLICAS", &cfg.Replicas},
		{"TALLY_RELIABLE_FROM", &cfg.ReliableFrom},
		{"TALLY_STRIPES", &cfg.Stripes},
		{"TALLY_OUTAGE_WINDOW", &cfg.OutageWindow},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, e.key, v)
		}
		*e.dst = n
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and enumerations
func (c Config) Validate() error {
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism %d", ErrInvalidConfig, c.Parallelism)
	}
	if c.Replicas < 0 {
		return fmt.Errorf("%w: replicas %d", ErrInvalidConfig, c.Replicas)
	}
	// Replicas from DefaultReliableFrom up must stay in the healthy tier
	if c.ReliableFrom < 0 || c.ReliableFrom > replica.DefaultReliableFrom {
		return fmt.Errorf("%w: reliable_from %d outside [0, %d]",
			ErrInvalidConfig, c.ReliableFrom, replica.DefaultReliableFrom)
	}
	if c.Stripes < 0 || c.OutageWindow < 0 {
		return fmt.Errorf("%w: stripes and outage_window must not be negative", ErrInvalidConfig)
	}
	switch c.Strategy {
	case StrategySequential, StrategyConcurrent:
	default:
		return fmt.Errorf("%w: strategy %q", ErrInvalidConfig, c.Strategy)
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// getenv returns the environment value for k, or def when unset or empty
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
