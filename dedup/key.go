// Package dedup suppresses readings that were already persisted or appear
// twice in one payload. The cache is an accelerator only: when it is down or
// cold, the store's uniqueness constraint remains the line of defense.
package dedup

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/types"
)

// Key identifies one logically unique reading. Two readings with equal keys
// are the same measurement regardless of when they were uploaded.
type Key struct {
	UserID uuid.UUID
	Kind   types.Kind
	At     time.Time
	Suffix string // kind-specific discriminator, "" when unused
}

// KeyFor derives the dedup key of a reading.
func KeyFor(userID uuid.UUID, m types.Metric) Key {
	return Key{
		UserID: userID,
		Kind:   m.Kind(),
		At:     m.RecordedAt(),
		Suffix: m.DedupSuffix(),
	}
}

// canonical is the stable string form hashed for cache keys and used for
// in-payload set membership. Millisecond precision matches the store's
// timestamp resolution.
func (k Key) canonical() string {
	return fmt.Sprintf("%s|%s|%d|%s", k.UserID, k.Kind, k.At.UnixMilli(), k.Suffix)
}

// CacheKey returns the compact cache key for this reading. The canonical
// tuple is hashed so key length stays constant no matter the discriminator.
func (k Key) CacheKey(prefix string) string {
	return fmt.Sprintf("%s:%016x", prefix, xxhash.Sum64String(k.canonical()))
}
