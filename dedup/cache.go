package dedup

import (
	"context"
	"sync"
)

// Cache is the persisted-key existence check backing the filter. A Cache is
// best-effort by contract: implementations report errors, but callers treat
// every error as "unknown, let the store decide" rather than failing the row.
type Cache interface {
	// ExistsBatch reports, per key, whether the key is known persisted.
	// The result slice is positionally aligned with keys.
	ExistsBatch(ctx context.Context, keys []Key) ([]bool, error)

	// MarkBatch records keys as persisted. Fire-and-forget tolerant.
	MarkBatch(ctx context.Context, keys []Key) error

	// Close releases cache resources.
	Close() error
}

// NopCache is the degraded-mode cache: nothing is ever known, everything
// falls through to the store's uniqueness constraint.
type NopCache struct{}

func (NopCache) ExistsBatch(_ context.Context, keys []Key) ([]bool, error) {
	return make([]bool, len(keys)), nil
}

func (NopCache) MarkBatch(context.Context, []Key) error { return nil }
func (NopCache) Close() error                           { return nil }

// MemoryCache is an in-process cache used by tests and single-node setups.
// Safe for concurrent ingestion calls.
type MemoryCache struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{seen: make(map[string]struct{})}
}

func (c *MemoryCache) ExistsBatch(_ context.Context, keys []Key) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]bool, len(keys))
	for i, k := range keys {
		_, out[i] = c.seen[k.canonical()]
	}
	return out, nil
}

func (c *MemoryCache) MarkBatch(_ context.Context, keys []Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		c.seen[k.canonical()] = struct{}{}
	}
	return nil
}

func (c *MemoryCache) Close() error { return nil }
