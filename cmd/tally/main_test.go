package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/tally/internal/config"
	"github.com/dreamware/tally/internal/input"
)

var quiet = log.New(io.Discard, "", 0)

const wantText = "Hadoop: 2\nJava: 4\nLisp: 2\nPascal: 2\nProlog: 4\nRDBMS: 3\n"

// TestRun exercises every strategy and format combination.
func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"defaults", func(*config.Config) {}},
		{"concurrent single lock", func(c *config.Config) { c.Strategy = config.StrategyConcurrent }},
		{"concurrent striped", func(c *config.Config) {
			c.Strategy = config.StrategyConcurrent
			c.Stripes = 4
		}},
		{"outage health", func(c *config.Config) { c.OutageWindow = 3 }},
		{"one worker", func(c *config.Config) { c.Parallelism = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			var buf bytes.Buffer
			require.NoError(t, run(context.Background(), cfg, &buf, quiet))
			assert.Equal(t, wantText, buf.String())
		})
	}
}

// TestRunJSON checks the json printer is wired through.
func TestRunJSON(t *testing.T) {
	cfg := config.Default()
	cfg.Format = "json"

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &buf, quiet))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 4, got["Java"])
	assert.Len(t, got, 6)
}

// TestRunErrors checks failures reach the caller without output.
func TestRunErrors(t *testing.T) {
	t.Run("unsupported input", func(t *testing.T) {
		cfg := config.Default()
		cfg.Input = "s3://bucket/words"

		var buf bytes.Buffer
		err := run(context.Background(), cfg, &buf, quiet)
		assert.ErrorIs(t, err, input.ErrUnsupportedInput)
		assert.Empty(t, buf.String())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Strategy = "bogus"
		assert.ErrorIs(t, run(context.Background(), cfg, io.Discard, quiet), config.ErrInvalidConfig)
	})
}

// TestLoadConfig reads the file named by TALLY_CONFIG and applies env overrides.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: concurrent\nparallelism: 2\n"), 0o644))

	t.Setenv("TALLY_CONFIG", path)
	t.Setenv("TALLY_PARALLELISM", "7")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StrategyConcurrent, cfg.Strategy)
	assert.Equal(t, 7, cfg.Parallelism)
}

// TestGetenv verifies default handling.
func TestGetenv(t *testing.T) {
	t.Setenv("TALLY_TEST_VAR", "set")
	assert.Equal(t, "set", getenv("TALLY_TEST_VAR", "def"))
	assert.Equal(t, "def", getenv("TALLY_TEST_UNSET", "def"))
}
