package types

import (
	"time"

	"github.com/google/uuid"
)

// ArchiveStatus is the lifecycle of a raw-payload archive record.
type ArchiveStatus string

const (
	ArchivePending    ArchiveStatus = "pending"
	ArchiveProcessing ArchiveStatus = "processing"
	ArchiveCompleted  ArchiveStatus = "completed"
	ArchivePartial    ArchiveStatus = "partial"
	ArchiveFailed     ArchiveStatus = "failed"
)

// RawIngestionRecord is the durable archive entry written before any
// processing begins. The payload hash makes replay idempotent: resubmitting
// identical bytes resolves to the existing record.
type RawIngestionRecord struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	PayloadHash  string
	SizeBytes    int64
	ReceivedAt   time.Time
	Status       ArchiveStatus
	ErrorSummary string
}

// IngestionReport is the caller-facing summary of one ingestion call.
// Counts are always exact; only the Errors list is capped.
type IngestionReport struct {
	IngestID uuid.UUID `json:"ingest_id"`
	UserID   uuid.UUID `json:"user_id"`

	TotalRows  int `json:"total_rows"`
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
	Duplicated int `json:"duplicated"`
	Failed     int `json:"failed"`

	ChunksCommitted    int `json:"chunks_committed"`
	ChunksFailed       int `json:"chunks_failed"`
	ChunksNotAttempted int `json:"chunks_not_attempted"`
	RetryAttempts      int `json:"retry_attempts"`

	// DuplicatesByKind breaks the duplicate count down per metric kind.
	DuplicatesByKind map[Kind]int `json:"duplicates_by_kind,omitempty"`

	// Errors holds the first N row errors; ErrorsTruncated marks that more
	// occurred than are listed. Failed stays exact either way.
	Errors          []RowError `json:"errors,omitempty"`
	ErrorsTruncated bool       `json:"errors_truncated,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Status derives the archive status this report finalizes to.
func (r *IngestionReport) Status() ArchiveStatus {
	switch {
	case r.Failed == 0 && r.ChunksNotAttempted == 0:
		return ArchiveCompleted
	case r.Accepted > 0:
		return ArchivePartial
	default:
		return ArchiveFailed
	}
}

// Complete reports whether every row reached a terminal outcome, i.e.
// accepted + rejected + duplicated + failed covers the whole payload.
func (r *IngestionReport) Complete() bool {
	return r.Accepted+r.Rejected+r.Duplicated+r.Failed == r.TotalRows
}
