package dedup

import (
	"context"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/log"
	"github.com/vitalsink/vitalsink/types"
)

// Filter marks duplicate rows within a validated group. Two layers:
// an in-payload set (first occurrence wins, deterministic regardless of later
// chunk ordering) and the shared cache of already-persisted keys.
type Filter struct {
	cache  Cache
	logger *log.Logger
}

// NewFilter creates a filter over the given cache. A nil cache degrades to
// in-payload detection only; the logger may be nil.
func NewFilter(cache Cache, logger *log.Logger) *Filter {
	if cache == nil {
		cache = NopCache{}
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Filter{cache: cache, logger: logger}
}

// Stats summarizes one group's dedup pass.
type Stats struct {
	InPayload int // duplicates of an earlier row in the same payload
	FromCache int // duplicates of an already-persisted reading
}

// Apply annotates duplicate rows in place and returns dedup stats.
// Only rows currently marked accepted are considered; rejected rows keep
// their outcome. Cache failures are logged and ignored: the rows stay
// accepted and the store's uniqueness constraint arbitrates.
func (f *Filter) Apply(ctx context.Context, userID uuid.UUID, rows []types.ValidatedRow) Stats {
	var stats Stats

	// Pass 1: in-payload duplicates.
	seen := make(map[string]struct{}, len(rows))
	candidates := make([]int, 0, len(rows))
	for i := range rows {
		if rows[i].Outcome != types.RowAccepted {
			continue
		}
		key := KeyFor(userID, rows[i].Row.Metric).canonical()
		if _, dup := seen[key]; dup {
			rows[i].Outcome = types.RowDuplicate
			stats.InPayload++
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, i)
	}

	if len(candidates) == 0 {
		return stats
	}

	// Pass 2: already-persisted keys via the cache.
	keys := make([]Key, len(candidates))
	for j, i := range candidates {
		keys[j] = KeyFor(userID, rows[i].Row.Metric)
	}

	exists, err := f.cache.ExistsBatch(ctx, keys)
	if err != nil {
		// Degraded mode: slower (the store detects conflicts) but correct.
		f.logger.Warn("dedup cache unavailable, deferring to store constraints", map[string]any{
			"error": err.Error(),
			"rows":  len(candidates),
		})
		return stats
	}

	for j, i := range candidates {
		if exists[j] {
			rows[i].Outcome = types.RowDuplicate
			stats.FromCache++
		}
	}
	return stats
}

// MarkPersisted records freshly committed rows in the cache. Failures are
// logged, never propagated: the cache is an accelerator, not a ledger.
func (f *Filter) MarkPersisted(ctx context.Context, userID uuid.UUID, rows []types.ValidatedRow) {
	if len(rows) == 0 {
		return
	}
	keys := make([]Key, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, KeyFor(userID, r.Row.Metric))
	}
	if err := f.cache.MarkBatch(ctx, keys); err != nil {
		f.logger.Warn("dedup cache mark failed", map[string]any{
			"error": err.Error(),
			"keys":  len(keys),
		})
	}
}
