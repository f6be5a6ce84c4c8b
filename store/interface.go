package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/types"
)

// MetricStore abstracts the relational store for metric writes.
// Implementations must make InsertBatch atomic: all rows commit together or
// none do, and a batch failure must leave no partial state behind.
type MetricStore interface {
	// Supports reports whether a table schema is registered for the kind.
	Supports(kind types.Kind) bool

	// InsertBatch writes rows of one kind in a single transaction, skipping
	// rows that violate the uniqueness constraint. Returns the number of rows
	// actually inserted; len(rows) − inserted were duplicates.
	InsertBatch(ctx context.Context, userID uuid.UUID, kind types.Kind, rows []types.Row) (int, error)

	// InsertOne writes a single row in its own statement. Returns a
	// classified error; ErrDuplicate means the row already existed.
	InsertOne(ctx context.Context, userID uuid.UUID, kind types.Kind, row types.Row) error
}

// Archive persists the raw payload before processing and records the final
// disposition after. The archive is the recovery path: a crash mid-pipeline
// leaves a pending record that replay tooling can pick up.
type Archive interface {
	// Create inserts a pending record for the payload, or returns the
	// existing record when the same payload hash was archived before.
	Create(ctx context.Context, userID uuid.UUID, raw []byte) (*types.RawIngestionRecord, error)

	// Finalize transitions the record to its terminal status with the report
	// summary. Idempotent: finalizing an already-final record is a no-op.
	Finalize(ctx context.Context, id uuid.UUID, status types.ArchiveStatus, summary string) error

	// ListUnfinished returns records stuck in pending/processing or marked
	// failed, oldest first, for replay tooling.
	ListUnfinished(ctx context.Context, limit int) ([]types.RawIngestionRecord, error)

	// Payload returns the archived raw bytes of a record.
	Payload(ctx context.Context, id uuid.UUID) ([]byte, error)
}
