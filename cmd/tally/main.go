// Package main runs one tally batch: it loads the configured input, counts
// every token through the map, shuffle and reduce stages, and prints the
// result to stdout.
//
// Configuration:
//   - TALLY_CONFIG: optional YAML file, see internal/config
//   - TALLY_INPUT: input descriptor (default: "default")
//   - TALLY_PARALLELISM: worker count (default: 2x CPUs)
//   - TALLY_REPLICAS: replicas per partition stream (default: 3)
//   - TALLY_RELIABLE_FROM: first always-healthy replica (default: 2)
//   - TALLY_STRATEGY: "sequential" or "concurrent" (default: "sequential")
//   - TALLY_STRIPES: lock stripes for the concurrent shuffle (default: single lock)
//   - TALLY_OUTAGE_WINDOW: > 0 uses outage-window replica health
//   - TALLY_FORMAT: "text", "json" or "yaml" (default: "text")
//
// Example usage:
//
//	TALLY_STRATEGY=concurrent TALLY_FORMAT=json ./tally
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dreamware/tally/internal/config"
	"github.com/dreamware/tally/internal/input"
	"github.com/dreamware/tally/internal/mapreduce"
	"github.com/dreamware/tally/internal/output"
	"github.com/dreamware/tally/internal/replica"
	"github.com/dreamware/tally/internal/storage"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

// outageFailureRate is the chance an unreliable replica starts an outage
const outageFailureRate = 0.3

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logFatal("config: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, log.Default()); err != nil {
		logFatal("tally: %v", err)
	}
}

// loadConfig reads TALLY_CONFIG when set, then applies environment overrides
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if path := getenv("TALLY_CONFIG", ""); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	return config.FromEnv(cfg)
}

// run executes one batch with cfg, writing results to w
func run(ctx context.Context, cfg config.Config, w io.Writer, logger *log.Logger) error {
	p, err := buildPipeline(cfg, w, logger)
	if err != nil {
		return err
	}
	_, err = p.Start(ctx, input.Descriptor(cfg.Input))
	return err
}

// buildPipeline translates cfg into pipeline options
func buildPipeline(cfg config.Config, w io.Writer, logger *log.Logger) (*mapreduce.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	var health replica.HealthModel
	if cfg.OutageWindow > 0 {
		h := replica.NewOutageHealth(cfg.ReliableFrom, outageFailureRate, cfg.OutageWindow, nil)
		h.SetLogger(logger)
		health = h
	} else {
		health = replica.NewRandomHealth(cfg.ReliableFrom, nil)
	}

	opts := []mapreduce.Option{
		mapreduce.WithParallelism(cfg.Parallelism),
		mapreduce.WithReplicas(cfg.Replicas),
		mapreduce.WithHealth(health),
		mapreduce.WithOutput(mapreduce.PrintOutput(w, format)),
		mapreduce.WithLogger(logger),
	}
	if cfg.Strategy == config.StrategyConcurrent {
		var newStore func() storage.GroupStore
		if cfg.Stripes > 0 {
			stripes := cfg.Stripes
			newStore = func() storage.GroupStore { return storage.NewStripedStore(stripes) }
		}
		opts = append(opts, mapreduce.WithConcurrentShuffle(newStore))
	}
	return mapreduce.NewPipeline(opts...), nil
}

// getenv returns the environment value for k, or def when unset or empty
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
