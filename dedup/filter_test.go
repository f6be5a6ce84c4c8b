package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/types"
)

var at = time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)

func i16(v int16) *int16 { return &v }

func hrRows(t *testing.T, times ...time.Time) []types.ValidatedRow {
	t.Helper()
	rows := make([]types.ValidatedRow, len(times))
	for i, ts := range times {
		rows[i] = types.ValidatedRow{
			Row:     types.Row{Index: i, Metric: &types.HeartRateMetric{Time: ts, BPM: i16(60)}},
			Outcome: types.RowAccepted,
		}
	}
	return rows
}

func TestFilter_InPayloadFirstOccurrenceWins(t *testing.T) {
	f := NewFilter(NewMemoryCache(), nil)
	rows := hrRows(t, at, at.Add(time.Minute), at) // rows 0 and 2 collide

	stats := f.Apply(context.Background(), uuid.New(), rows)
	if stats.InPayload != 1 {
		t.Fatalf("InPayload = %d, want 1", stats.InPayload)
	}
	if rows[0].Outcome != types.RowAccepted {
		t.Error("first occurrence should stay accepted")
	}
	if rows[1].Outcome != types.RowAccepted {
		t.Error("distinct row should stay accepted")
	}
	if rows[2].Outcome != types.RowDuplicate {
		t.Errorf("later occurrence outcome = %s, want duplicate", rows[2].Outcome)
	}
}

func TestFilter_CacheHitMarksDuplicate(t *testing.T) {
	cache := NewMemoryCache()
	f := NewFilter(cache, nil)
	userID := uuid.New()

	first := hrRows(t, at)
	f.Apply(context.Background(), userID, first)
	f.MarkPersisted(context.Background(), userID, first)

	replay := hrRows(t, at, at.Add(time.Minute))
	stats := f.Apply(context.Background(), userID, replay)
	if stats.FromCache != 1 {
		t.Fatalf("FromCache = %d, want 1", stats.FromCache)
	}
	if replay[0].Outcome != types.RowDuplicate {
		t.Errorf("replayed row outcome = %s, want duplicate", replay[0].Outcome)
	}
	if replay[1].Outcome != types.RowAccepted {
		t.Errorf("new row outcome = %s, want accepted", replay[1].Outcome)
	}
}

func TestFilter_KeysAreUserScoped(t *testing.T) {
	cache := NewMemoryCache()
	f := NewFilter(cache, nil)
	userA, userB := uuid.New(), uuid.New()

	rows := hrRows(t, at)
	f.MarkPersisted(context.Background(), userA, rows)

	other := hrRows(t, at)
	stats := f.Apply(context.Background(), userB, other)
	if stats.FromCache != 0 {
		t.Fatalf("user B saw user A's keys: FromCache = %d", stats.FromCache)
	}
	if other[0].Outcome != types.RowAccepted {
		t.Errorf("outcome = %s, want accepted", other[0].Outcome)
	}
}

func TestFilter_RejectedRowsIgnored(t *testing.T) {
	f := NewFilter(NewMemoryCache(), nil)
	rows := hrRows(t, at, at)
	rows[0].Outcome = types.RowRejected
	rows[0].Reason = "bpm out of range"

	stats := f.Apply(context.Background(), uuid.New(), rows)
	if stats.InPayload != 0 {
		t.Fatalf("InPayload = %d, want 0: rejected row should not claim the key", stats.InPayload)
	}
	if rows[0].Outcome != types.RowRejected {
		t.Error("rejected outcome overwritten")
	}
	if rows[1].Outcome != types.RowAccepted {
		t.Errorf("row after rejected twin = %s, want accepted", rows[1].Outcome)
	}
}

// failingCache errors on every lookup, as a down Redis would.
type failingCache struct{}

func (failingCache) ExistsBatch(context.Context, []Key) ([]bool, error) {
	return nil, errors.New("connection refused")
}
func (failingCache) MarkBatch(context.Context, []Key) error { return errors.New("connection refused") }
func (failingCache) Close() error                           { return nil }

func TestFilter_CacheFailureDegrades(t *testing.T) {
	f := NewFilter(failingCache{}, nil)
	rows := hrRows(t, at, at.Add(time.Minute))

	stats := f.Apply(context.Background(), uuid.New(), rows)
	if stats.FromCache != 0 {
		t.Fatalf("FromCache = %d, want 0 on cache failure", stats.FromCache)
	}
	for i, r := range rows {
		if r.Outcome != types.RowAccepted {
			t.Errorf("row %d outcome = %s, want accepted in degraded mode", i, r.Outcome)
		}
	}

	// MarkPersisted on a failing cache must not panic or propagate.
	f.MarkPersisted(context.Background(), uuid.New(), rows)
}

func TestKey_SuffixSeparatesReadings(t *testing.T) {
	userID := uuid.New()
	s1 := &types.SleepMetric{Start: at, End: at.Add(8 * time.Hour)}
	s2 := &types.SleepMetric{Start: at, End: at.Add(9 * time.Hour)}

	k1, k2 := KeyFor(userID, s1), KeyFor(userID, s2)
	if k1.canonical() == k2.canonical() {
		t.Error("overlapping sleep sessions collapsed to one key")
	}
	if k1.CacheKey(DefaultKeyPrefix) == k2.CacheKey(DefaultKeyPrefix) {
		t.Error("cache keys collide for distinct sessions")
	}
}

func TestKey_CanonicalStable(t *testing.T) {
	userID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	m := &types.HeartRateMetric{Time: at}
	a := KeyFor(userID, m).CacheKey(DefaultKeyPrefix)
	b := KeyFor(userID, m).CacheKey(DefaultKeyPrefix)
	if a != b {
		t.Fatalf("cache key not deterministic: %s vs %s", a, b)
	}
}
