package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Accumulates(t *testing.T) {
	c := NewCollector("ingest-1", "user-1", nil)

	c.AddRowsReceived(10)
	c.AddRowsAccepted(6)
	c.AddRowsRejected(1)
	c.AddRowsDuplicated("heart_rate", 2)
	c.AddRowsDuplicated("sleep", 1)
	c.AddRowsFailed(1)
	c.IncChunkCommitted("heart_rate", 50*time.Millisecond)
	c.IncChunkFailed()
	c.IncChunkNotAttempted()
	c.IncRetryAttempt()
	c.IncRetryAttempt()
	c.IncRowFallback()

	snap := c.Snapshot()
	if snap.RowsReceived != 10 || snap.RowsAccepted != 6 {
		t.Errorf("received/accepted = %d/%d, want 10/6", snap.RowsReceived, snap.RowsAccepted)
	}
	if snap.RowsRejected != 1 || snap.RowsDuplicated != 3 || snap.RowsFailed != 1 {
		t.Errorf("rejected/duplicated/failed = %d/%d/%d, want 1/3/1",
			snap.RowsRejected, snap.RowsDuplicated, snap.RowsFailed)
	}
	if snap.DuplicatesByKind["heart_rate"] != 2 || snap.DuplicatesByKind["sleep"] != 1 {
		t.Errorf("DuplicatesByKind = %v", snap.DuplicatesByKind)
	}
	if snap.ChunksCommitted != 1 || snap.ChunksFailed != 1 || snap.ChunksNotAttempted != 1 {
		t.Errorf("chunks = %d/%d/%d, want 1/1/1",
			snap.ChunksCommitted, snap.ChunksFailed, snap.ChunksNotAttempted)
	}
	if snap.RetryAttempts != 2 || snap.RowFallbacks != 1 {
		t.Errorf("retries/fallbacks = %d/%d, want 2/1", snap.RetryAttempts, snap.RowFallbacks)
	}
	if snap.IngestID != "ingest-1" || snap.UserID != "user-1" {
		t.Errorf("dimensions = %s/%s", snap.IngestID, snap.UserID)
	}
}

func TestCollector_SnapshotIsACopy(t *testing.T) {
	c := NewCollector("i", "u", nil)
	c.AddRowsDuplicated("heart_rate", 1)

	snap := c.Snapshot()
	snap.DuplicatesByKind["heart_rate"] = 99

	if got := c.Snapshot().DuplicatesByKind["heart_rate"]; got != 1 {
		t.Errorf("snapshot mutation leaked into collector: %d", got)
	}
}

func TestCollector_NilReceiverSafe(t *testing.T) {
	var c *Collector
	c.AddRowsReceived(1)
	c.AddRowsAccepted(1)
	c.AddRowsRejected(1)
	c.AddRowsDuplicated("heart_rate", 1)
	c.AddRowsFailed(1)
	c.IncChunkCommitted("heart_rate", time.Millisecond)
	c.IncChunkFailed()
	c.IncChunkNotAttempted()
	c.IncRetryAttempt()
	c.IncRowFallback()

	snap := c.Snapshot()
	if snap.RowsReceived != 0 {
		t.Errorf("nil collector accumulated: %+v", snap)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("i", "u", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddRowsAccepted(1)
			c.IncRetryAttempt()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.RowsAccepted != 50 || snap.RetryAttempts != 50 {
		t.Errorf("accepted/retries = %d/%d, want 50/50", snap.RowsAccepted, snap.RetryAttempts)
	}
}

func TestPromSink_MirrorsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPromSink(reg)
	c := NewCollector("i", "u", sink)

	c.AddRowsReceived(5)
	c.AddRowsAccepted(4)
	c.AddRowsFailed(1)
	c.IncChunkCommitted("heart_rate", 10*time.Millisecond)
	c.IncRetryAttempt()

	if got := testutil.ToFloat64(sink.rows.WithLabelValues("received")); got != 5 {
		t.Errorf("rows_total{outcome=received} = %v, want 5", got)
	}
	if got := testutil.ToFloat64(sink.rows.WithLabelValues("accepted")); got != 4 {
		t.Errorf("rows_total{outcome=accepted} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(sink.chunks.WithLabelValues("committed")); got != 1 {
		t.Errorf("chunks_total{state=committed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.retries); got != 1 {
		t.Errorf("chunk_retries_total = %v, want 1", got)
	}
}
