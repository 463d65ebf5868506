package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8600", cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Tracing.MaxChains)
	assert.Equal(t, time.Duration(0), cfg.Tracing.SpanTTL)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 1000, cfg.RateLimit.GlobalRequestsPerSecond)
	assert.Equal(t, 2000, cfg.RateLimit.GlobalBurst)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TRACE_MAX_CHAINS", "42")
	t.Setenv("TRACE_SPAN_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Tracing.MaxChains)
	assert.Equal(t, 5*time.Minute, cfg.Tracing.SpanTTL)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9000"
tracing:
  max_chains: 7
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Tracing.MaxChains)
	// Untouched keys keep their environment defaults.
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}
