package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces dedup keys in a shared Redis.
const DefaultKeyPrefix = "vitalsink:dedup"

// DefaultTTL bounds how long a persisted key is remembered. Past the TTL the
// store's uniqueness constraint takes over, so expiry costs latency, not
// correctness.
const DefaultTTL = 14 * 24 * time.Hour

// DefaultTimeout is the per-round-trip budget for cache operations.
const DefaultTimeout = 2 * time.Second

// RedisConfig configures the Redis-backed key cache.
type RedisConfig struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// KeyPrefix namespaces keys (default: vitalsink:dedup).
	KeyPrefix string
	// TTL is how long marked keys live (default 14 days).
	TTL time.Duration
	// Timeout is the per-operation timeout (default 2s).
	Timeout time.Duration
}

// RedisCache is the shared persisted-key cache. All operations are batched
// through pipelines; one payload's worth of keys costs one round trip.
type RedisCache struct {
	config RedisConfig
	client *goredis.Client
}

// NewRedisCache creates a Redis key cache from the given config.
// Returns an error if the URL is empty or invalid.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if cfg.URL == "" {
		return nil, errors.New("dedup cache requires a redis URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dedup cache: invalid URL: %w", err)
	}

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &RedisCache{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// ExistsBatch checks all keys in one pipelined round trip.
func (c *RedisCache) ExistsBatch(ctx context.Context, keys []Key) ([]bool, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	pipe := c.client.Pipeline()
	cmds := make([]*goredis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Exists(opCtx, k.CacheKey(c.config.KeyPrefix))
	}
	if _, err := pipe.Exec(opCtx); err != nil {
		return nil, fmt.Errorf("dedup cache: exists pipeline: %w", err)
	}

	out := make([]bool, len(keys))
	for i, cmd := range cmds {
		out[i] = cmd.Val() > 0
	}
	return out, nil
}

// MarkBatch records keys with the configured TTL in one pipelined round trip.
func (c *RedisCache) MarkBatch(ctx context.Context, keys []Key) error {
	if len(keys) == 0 {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	pipe := c.client.Pipeline()
	for _, k := range keys {
		pipe.Set(opCtx, k.CacheKey(c.config.KeyPrefix), 1, c.config.TTL)
	}
	if _, err := pipe.Exec(opCtx); err != nil {
		return fmt.Errorf("dedup cache: mark pipeline: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Verify RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
