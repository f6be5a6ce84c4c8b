package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/chunk"
	"github.com/vitalsink/vitalsink/store"
	"github.com/vitalsink/vitalsink/types"
)

var testUser = uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

// fastPolicy keeps retry tests away from real backoff waits.
var fastPolicy = RetryPolicy{
	MaxRetries:     3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
}

func hrChunk(n int) chunk.Chunk {
	base := time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)
	rows := make([]types.ValidatedRow, n)
	for i := range rows {
		rows[i] = types.ValidatedRow{
			Row: types.Row{
				Index:  i,
				Metric: &types.HeartRateMetric{Time: base.Add(time.Duration(i) * time.Minute)},
			},
			Outcome: types.RowAccepted,
		}
	}
	return chunk.Chunk{Kind: types.KindHeartRate, Rows: rows}
}

func transientErr() error {
	return store.NewError(store.ErrTransient, "insert_batch", types.KindHeartRate, errors.New("connection reset"))
}

func terminalErr() error {
	return store.NewError(store.ErrTerminal, "insert_batch", types.KindHeartRate, errors.New("value out of range"))
}

func TestChunkRunner_CommitsFirstAttempt(t *testing.T) {
	s := store.NewStubStore()
	s.Duplicates[types.KindHeartRate] = 2
	r := NewChunkRunner(s, fastPolicy, nil, nil)

	out := r.Run(context.Background(), testUser, hrChunk(5))
	if out.State != types.ChunkCommitted {
		t.Fatalf("state = %s, want committed", out.State)
	}
	if out.Committed != 3 || out.Duplicates != 2 {
		t.Errorf("committed/duplicates = %d/%d, want 3/2", out.Committed, out.Duplicates)
	}
	if out.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", out.Attempts)
	}
}

func TestChunkRunner_RetriesTransientThenCommits(t *testing.T) {
	s := store.NewStubStore()
	s.FailBatch(types.KindHeartRate, transientErr(), transientErr())
	r := NewChunkRunner(s, fastPolicy, nil, nil)

	out := r.Run(context.Background(), testUser, hrChunk(4))
	if out.State != types.ChunkCommitted {
		t.Fatalf("state = %s, want committed", out.State)
	}
	if out.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", out.Attempts)
	}
	if got := len(s.BatchCalls); got != 3 {
		t.Errorf("batch calls = %d, want 3", got)
	}
	if out.Committed != 4 {
		t.Errorf("committed = %d, want 4", out.Committed)
	}
}

func TestChunkRunner_ExhaustedBudgetDegradesToRowFallback(t *testing.T) {
	s := store.NewStubStore()
	s.FailBatch(types.KindHeartRate,
		transientErr(), transientErr(), transientErr(), transientErr())
	r := NewChunkRunner(s, fastPolicy, nil, nil)

	out := r.Run(context.Background(), testUser, hrChunk(3))
	if out.State != types.ChunkRowFallback {
		t.Fatalf("state = %s, want row_fallback", out.State)
	}
	if out.Attempts != fastPolicy.MaxRetries {
		t.Errorf("attempts = %d, want %d", out.Attempts, fastPolicy.MaxRetries)
	}
	if got := len(s.BatchCalls); got != fastPolicy.MaxRetries+1 {
		t.Errorf("batch calls = %d, want %d", got, fastPolicy.MaxRetries+1)
	}
	// The row path gets its own shot at every row of the chunk.
	if got := len(s.OneCalls); got != 3 {
		t.Fatalf("one calls = %d, want 3", got)
	}
	if out.Committed != 3 || len(out.RowErrors) != 0 {
		t.Errorf("committed/row errors = %d/%d, want 3/0", out.Committed, len(out.RowErrors))
	}
}

func TestChunkRunner_RowFallbackReportsRowsStillFailing(t *testing.T) {
	s := store.NewStubStore()
	s.FailBatch(types.KindHeartRate,
		transientErr(), transientErr(), transientErr(), transientErr())
	for i := 0; i < 3; i++ {
		s.FailRow(i, transientErr())
	}
	r := NewChunkRunner(s, fastPolicy, nil, nil)

	out := r.Run(context.Background(), testUser, hrChunk(3))
	if out.State != types.ChunkRowFallback {
		t.Fatalf("state = %s, want row_fallback", out.State)
	}
	if out.Committed != 0 {
		t.Errorf("committed = %d, want 0", out.Committed)
	}
	// Every unrecovered row shows up in the report.
	if len(out.RowErrors) != 3 {
		t.Fatalf("row errors = %d, want 3", len(out.RowErrors))
	}
	for i, e := range out.RowErrors {
		if e.Index != i {
			t.Errorf("row error %d carries index %d", i, e.Index)
		}
	}
}

func TestChunkRunner_TerminalDegradesToRowFallback(t *testing.T) {
	s := store.NewStubStore()
	s.FailBatch(types.KindHeartRate, terminalErr())
	s.FailRow(1, terminalErr())
	s.FailRow(2, store.ErrDuplicate)
	r := NewChunkRunner(s, fastPolicy, nil, nil)

	out := r.Run(context.Background(), testUser, hrChunk(4))
	if out.State != types.ChunkRowFallback {
		t.Fatalf("state = %s, want row_fallback", out.State)
	}
	if out.Committed != 2 {
		t.Errorf("committed = %d, want 2", out.Committed)
	}
	if out.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", out.Duplicates)
	}
	if len(out.RowErrors) != 1 || out.RowErrors[0].Index != 1 {
		t.Fatalf("row errors = %+v, want one error at index 1", out.RowErrors)
	}
	if got := len(s.BatchCalls); got != 1 {
		t.Errorf("batch calls = %d, want 1: terminal errors must not retry", got)
	}
	if got := len(s.OneCalls); got != 4 {
		t.Errorf("one calls = %d, want 4", got)
	}
}

func TestChunkRunner_DeadContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := store.NewStubStore()
	s.FailBatch(types.KindHeartRate, transientErr(), transientErr())
	r := NewChunkRunner(s, fastPolicy, nil, nil)

	// The in-flight attempt still runs detached from the dead context, but
	// no further attempts are scheduled.
	out := r.Run(ctx, testUser, hrChunk(2))
	if out.State != types.ChunkFailed {
		t.Fatalf("state = %s, want failed", out.State)
	}
	if got := len(s.BatchCalls); got != 1 {
		t.Errorf("batch calls = %d, want 1: canceled context kept retrying", got)
	}
}
