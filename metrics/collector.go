// Package metrics provides per-ingestion metrics collection.
//
// The Collector accumulates counters during a single ingestion call. It is a
// leaf package with no internal dependencies. Counters are mirrored to an
// optional Sink (Prometheus in production) as they are recorded.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is an immutable point-in-time view of one ingestion's counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	RowsReceived   int64
	RowsAccepted   int64
	RowsRejected   int64
	RowsDuplicated int64
	RowsFailed     int64

	ChunksCommitted    int64
	ChunksFailed       int64
	ChunksNotAttempted int64
	RetryAttempts      int64
	RowFallbacks       int64

	DuplicatesByKind map[string]int64

	// Dimensions (informational, set at construction)
	IngestID string
	UserID   string
}

// Collector accumulates metrics during a single ingestion call.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	rowsReceived   int64
	rowsAccepted   int64
	rowsRejected   int64
	rowsDuplicated int64
	rowsFailed     int64

	chunksCommitted    int64
	chunksFailed       int64
	chunksNotAttempted int64
	retryAttempts      int64
	rowFallbacks       int64

	duplicatesByKind map[string]int64

	sink Sink

	ingestID string
	userID   string
}

// NewCollector creates a Collector with dimension labels and an optional
// sink. A nil sink disables mirroring.
func NewCollector(ingestID, userID string, sink Sink) *Collector {
	if sink == nil {
		sink = NopSink{}
	}
	return &Collector{
		duplicatesByKind: make(map[string]int64),
		sink:             sink,
		ingestID:         ingestID,
		userID:           userID,
	}
}

// AddRowsReceived records rows arriving in the payload.
func (c *Collector) AddRowsReceived(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsReceived += int64(n)
	c.mu.Unlock()
	c.sink.AddRows("received", n)
}

// AddRowsAccepted records rows that passed validation and dedup.
func (c *Collector) AddRowsAccepted(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsAccepted += int64(n)
	c.mu.Unlock()
	c.sink.AddRows("accepted", n)
}

// AddRowsRejected records rows dropped by validation.
func (c *Collector) AddRowsRejected(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsRejected += int64(n)
	c.mu.Unlock()
	c.sink.AddRows("rejected", n)
}

// AddRowsDuplicated records rows skipped as duplicates, attributed to a kind.
func (c *Collector) AddRowsDuplicated(kind string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.rowsDuplicated += int64(n)
	c.duplicatesByKind[kind] += int64(n)
	c.mu.Unlock()
	c.sink.AddRows("duplicated", n)
}

// AddRowsFailed records rows that failed persistence terminally.
func (c *Collector) AddRowsFailed(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsFailed += int64(n)
	c.mu.Unlock()
	c.sink.AddRows("failed", n)
}

// IncChunkCommitted records one chunk reaching committed state, with its
// wall-clock execution latency.
func (c *Collector) IncChunkCommitted(kind string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksCommitted++
	c.mu.Unlock()
	c.sink.IncChunks("committed")
	c.sink.ObserveChunkLatency(kind, elapsed)
}

// IncChunkFailed records one chunk ending in failed state.
func (c *Collector) IncChunkFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksFailed++
	c.mu.Unlock()
	c.sink.IncChunks("failed")
}

// IncChunkNotAttempted records one chunk skipped by deadline or cancellation.
func (c *Collector) IncChunkNotAttempted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksNotAttempted++
	c.mu.Unlock()
	c.sink.IncChunks("not_attempted")
}

// IncRetryAttempt records one chunk retry.
func (c *Collector) IncRetryAttempt() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.retryAttempts++
	c.mu.Unlock()
	c.sink.IncRetries()
}

// IncRowFallback records one chunk degrading to row-by-row insertion.
func (c *Collector) IncRowFallback() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowFallbacks++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
// Nil-receiver safe: returns a zero-value Snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{DuplicatesByKind: map[string]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.duplicatesByKind))
	for k, v := range c.duplicatesByKind {
		byKind[k] = v
	}

	return Snapshot{
		RowsReceived:       c.rowsReceived,
		RowsAccepted:       c.rowsAccepted,
		RowsRejected:       c.rowsRejected,
		RowsDuplicated:     c.rowsDuplicated,
		RowsFailed:         c.rowsFailed,
		ChunksCommitted:    c.chunksCommitted,
		ChunksFailed:       c.chunksFailed,
		ChunksNotAttempted: c.chunksNotAttempted,
		RetryAttempts:      c.retryAttempts,
		RowFallbacks:       c.rowFallbacks,
		DuplicatesByKind:   byKind,
		IngestID:           c.ingestID,
		UserID:             c.userID,
	}
}
