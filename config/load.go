package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, expands environment variable references,
// unmarshals, applies environment overrides and defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// FromEnv builds a config without a file, from environment variables and
// defaults alone.
func FromEnv() (*Config, error) {
	var cfg Config
	cfg.applyEnvOverrides()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets VITALSINK_* variables override file values.
// Only settings an operator would flip per deployment are exposed.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VITALSINK_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("VITALSINK_REDIS_URL"); v != "" {
		c.Dedup.RedisURL = v
	}
	if v, ok := envInt("VITALSINK_MAX_PARAMETERS"); ok {
		c.Batch.MaxParameters = v
	}
	if v, ok := envInt("VITALSINK_MAX_PARALLEL_CHUNKS"); ok {
		c.Batch.MaxParallelChunks = v
	}
	if v, ok := envInt("VITALSINK_MEMORY_LIMIT_MB"); ok {
		c.Batch.MemoryLimitMB = v
	}
	if v, ok := envInt("VITALSINK_MAX_RETRIES"); ok {
		c.Retry.MaxRetries = v
	}
	if v, ok := envDuration("VITALSINK_INITIAL_BACKOFF"); ok {
		c.Retry.InitialBackoff.Duration = v
	}
	if v, ok := envDuration("VITALSINK_MAX_BACKOFF"); ok {
		c.Retry.MaxBackoff.Duration = v
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
