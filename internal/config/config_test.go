package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.Checkpoint.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graphctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
checkpoint:
  driver: redis
  redis_url: "redis://localhost:6379"
http:
  addr: ":9999"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis", cfg.Checkpoint.Driver)
	assert.Equal(t, "redis://localhost:6379", cfg.Checkpoint.RedisURL)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("STATEGRAPH_LOG_LEVEL", "warn")
	t.Setenv("STATEGRAPH_METRICS_ENABLED", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
