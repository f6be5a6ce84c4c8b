package config

import (
	"fmt"
	"time"

	"github.com/vitalsink/vitalsink/types"
)

// Config represents a vitalsink.yaml configuration file.
// All values are optional; zero values fall back to defaults via
// ApplyDefaults. Environment variables override file values.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Batch    BatchConfig    `yaml:"batch"`
	Retry    RetryConfig    `yaml:"retry"`
	Report   ReportConfig   `yaml:"report"`
	Adapter  AdapterConfig  `yaml:"adapter"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// DedupConfig holds the Redis dedup-cache settings. An empty URL disables the
// cross-payload cache; in-payload dedup always runs.
type DedupConfig struct {
	RedisURL  string   `yaml:"redis_url"`
	KeyPrefix string   `yaml:"key_prefix"`
	TTL       Duration `yaml:"ttl"`
	Timeout   Duration `yaml:"timeout"`
}

// BatchConfig controls chunk planning and parallel execution.
type BatchConfig struct {
	// MaxParameters is the driver's bound-parameter ceiling per statement.
	MaxParameters int `yaml:"max_parameters"`

	// SafetyMarginPercent shrinks the usable parameter budget, leaving
	// headroom below the driver ceiling. 20 means plan against 80%.
	SafetyMarginPercent int `yaml:"safety_margin_percent"`

	// PreferredChunkSizes caps chunk row counts per kind below the
	// parameter-derived maximum.
	PreferredChunkSizes map[types.Kind]int `yaml:"preferred_chunk_sizes"`

	// MaxParallelChunks bounds concurrent chunk insertions.
	MaxParallelChunks int `yaml:"max_parallel_chunks"`

	// MemoryLimitMB scales chunk sizes down on constrained deployments.
	MemoryLimitMB int `yaml:"memory_limit_mb"`
}

// RetryConfig controls transient-failure retry at chunk granularity.
type RetryConfig struct {
	MaxRetries     int      `yaml:"max_retries"`
	InitialBackoff Duration `yaml:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff"`
}

// ReportConfig controls report shaping.
type ReportConfig struct {
	// MaxErrors caps the per-row error list in the report. Counts stay exact.
	MaxErrors int `yaml:"max_errors"`
}

// AdapterConfig holds completion-event publishing settings.
type AdapterConfig struct {
	Type    string            `yaml:"type"` // none, redis, webhook
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "100ms", "5s").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "100ms" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Defaults mirrored by ApplyDefaults.
const (
	DefaultMaxParameters       = 65535
	DefaultSafetyMarginPercent = 20
	DefaultMaxParallelChunks   = 10
	DefaultMemoryLimitMB       = 500
	DefaultMaxRetries          = 3
	DefaultInitialBackoff      = 100 * time.Millisecond
	DefaultMaxBackoff          = 5 * time.Second
	DefaultMaxErrors           = 100
	DefaultDedupTTL            = 14 * 24 * time.Hour
	DefaultDedupTimeout        = 2 * time.Second
)

// ApplyDefaults fills zero-valued fields in place.
func (c *Config) ApplyDefaults() {
	if c.Batch.MaxParameters == 0 {
		c.Batch.MaxParameters = DefaultMaxParameters
	}
	if c.Batch.SafetyMarginPercent == 0 {
		c.Batch.SafetyMarginPercent = DefaultSafetyMarginPercent
	}
	if c.Batch.MaxParallelChunks == 0 {
		c.Batch.MaxParallelChunks = DefaultMaxParallelChunks
	}
	if c.Batch.MemoryLimitMB == 0 {
		c.Batch.MemoryLimitMB = DefaultMemoryLimitMB
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = DefaultMaxRetries
	}
	if c.Retry.InitialBackoff.Duration == 0 {
		c.Retry.InitialBackoff.Duration = DefaultInitialBackoff
	}
	if c.Retry.MaxBackoff.Duration == 0 {
		c.Retry.MaxBackoff.Duration = DefaultMaxBackoff
	}
	if c.Report.MaxErrors == 0 {
		c.Report.MaxErrors = DefaultMaxErrors
	}
	if c.Dedup.TTL.Duration == 0 {
		c.Dedup.TTL.Duration = DefaultDedupTTL
	}
	if c.Dedup.Timeout.Duration == 0 {
		c.Dedup.Timeout.Duration = DefaultDedupTimeout
	}
	if c.Adapter.Type == "" {
		c.Adapter.Type = "none"
	}
}

// SafeParameterBudget is the usable parameter count after the safety margin.
func (c *Config) SafeParameterBudget() int {
	return c.Batch.MaxParameters * (100 - c.Batch.SafetyMarginPercent) / 100
}

// Validate checks cross-field consistency after defaults are applied.
func (c *Config) Validate() error {
	if c.Batch.MaxParameters < 1 {
		return fmt.Errorf("batch.max_parameters must be positive, got %d", c.Batch.MaxParameters)
	}
	if c.Batch.SafetyMarginPercent < 0 || c.Batch.SafetyMarginPercent > 90 {
		return fmt.Errorf("batch.safety_margin_percent must be in [0, 90], got %d", c.Batch.SafetyMarginPercent)
	}
	if c.Batch.MaxParallelChunks < 1 {
		return fmt.Errorf("batch.max_parallel_chunks must be positive, got %d", c.Batch.MaxParallelChunks)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be non-negative, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.InitialBackoff.Duration <= 0 {
		return fmt.Errorf("retry.initial_backoff must be positive, got %s", c.Retry.InitialBackoff.Duration)
	}
	if c.Retry.MaxBackoff.Duration < c.Retry.InitialBackoff.Duration {
		return fmt.Errorf("retry.max_backoff %s below retry.initial_backoff %s",
			c.Retry.MaxBackoff.Duration, c.Retry.InitialBackoff.Duration)
	}
	if c.Report.MaxErrors < 1 {
		return fmt.Errorf("report.max_errors must be positive, got %d", c.Report.MaxErrors)
	}

	budget := c.SafeParameterBudget()
	for kind, size := range c.Batch.PreferredChunkSizes {
		cols := kind.Columns()
		if cols == 0 {
			return fmt.Errorf("batch.preferred_chunk_sizes: unknown kind %q", kind)
		}
		if size < 1 {
			return fmt.Errorf("batch.preferred_chunk_sizes[%s] must be positive, got %d", kind, size)
		}
		if size*cols > budget {
			return fmt.Errorf("batch.preferred_chunk_sizes[%s]: %d rows * %d columns exceeds parameter budget %d",
				kind, size, cols, budget)
		}
	}

	switch c.Adapter.Type {
	case "none", "":
	case "redis", "webhook":
		if c.Adapter.URL == "" {
			return fmt.Errorf("adapter.url required for adapter type %q", c.Adapter.Type)
		}
	default:
		return fmt.Errorf("unknown adapter type %q", c.Adapter.Type)
	}
	return nil
}
