// Package config loads graphctl's layered configuration: a YAML file on
// disk overlaid with environment variables, decoded into a typed struct via
// mapstructure the way the corpus decodes frontmatter metadata.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is graphctl's runtime configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// CheckpointConfig selects and configures the checkpoint store backend.
type CheckpointConfig struct {
	// Driver is "memory" or "redis".
	Driver   string `mapstructure:"driver"`
	RedisURL string `mapstructure:"redis_url"`
	Prefix   string `mapstructure:"prefix"`
	TTL      string `mapstructure:"ttl"`

	// Locking enables the distributed locker (redis driver only), which
	// serializes concurrent HTTP invoke/stream requests against the same
	// thread id.
	Locking bool   `mapstructure:"locking"`
	LockTTL string `mapstructure:"lock_ttl"`
}

// HTTPConfig configures the invoke/stream/state/history/render server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Default returns the built-in configuration used when no file is present
// and no environment overrides apply.
func Default() Config {
	return Config{
		LogLevel: "info",
		Checkpoint: CheckpointConfig{
			Driver:  "memory",
			Prefix:  "stategraph",
			LockTTL: "10s",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Load reads path (if non-empty and it exists) as YAML into Default(),
// then applies STATEGRAPH_-prefixed environment variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else {
			var raw map[string]any
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
			if err := decodeInto(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func decodeInto(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

const envPrefix = "STATEGRAPH_"

// applyEnvOverrides scans the process environment for STATEGRAPH_<PATH>
// variables, where PATH is the underscore-joined, uppercased mapstructure
// field path (e.g. STATEGRAPH_CHECKPOINT_DRIVER, STATEGRAPH_METRICS_ENABLED).
func applyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"LOG_LEVEL":            &cfg.LogLevel,
		"CHECKPOINT_DRIVER":    &cfg.Checkpoint.Driver,
		"CHECKPOINT_REDIS_URL": &cfg.Checkpoint.RedisURL,
		"CHECKPOINT_PREFIX":    &cfg.Checkpoint.Prefix,
		"CHECKPOINT_TTL":       &cfg.Checkpoint.TTL,
		"CHECKPOINT_LOCK_TTL":  &cfg.Checkpoint.LockTTL,
		"HTTP_ADDR":            &cfg.HTTP.Addr,
		"METRICS_ADDR":         &cfg.Metrics.Addr,
	}
	for suffix, dst := range overrides {
		if v, ok := os.LookupEnv(envPrefix + suffix); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "METRICS_ENABLED"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "CHECKPOINT_LOCKING"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Checkpoint.Locking = b
		}
	}
}
