// Package adapter defines the completion-event boundary.
//
// Adapters publish ingestion completion notifications to downstream systems
// (alerting, sync consumers, audit trails). Publish failures are logged by
// the caller, never propagated into the ingestion result.
package adapter

import (
	"context"

	"github.com/vitalsink/vitalsink/types"
)

// IngestionCompletedEvent is the payload published when an ingestion call
// reaches a terminal status.
type IngestionCompletedEvent struct {
	EventType  string `json:"event_type"` // always "ingestion_completed"
	IngestID   string `json:"ingest_id"`
	UserID     string `json:"user_id"`
	Status     string `json:"status"` // completed, partial, failed
	TotalRows  int    `json:"total_rows"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
	Duplicated int    `json:"duplicated"`
	Failed     int    `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"` // ISO 8601
}

// FromReport builds the event from a finished ingestion report.
func FromReport(r *types.IngestionReport, timestamp string) *IngestionCompletedEvent {
	return &IngestionCompletedEvent{
		EventType:  "ingestion_completed",
		IngestID:   r.IngestID.String(),
		UserID:     r.UserID.String(),
		Status:     string(r.Status()),
		TotalRows:  r.TotalRows,
		Accepted:   r.Accepted,
		Rejected:   r.Rejected,
		Duplicated: r.Duplicated,
		Failed:     r.Failed,
		DurationMs: r.Elapsed.Milliseconds(),
		Timestamp:  timestamp,
	}
}

// Adapter publishes ingestion completion events to a downstream system.
// Implementations must be safe for concurrent use across ingestion calls.
type Adapter interface {
	// Publish sends a completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *IngestionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Nop is an Adapter that discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, *IngestionCompletedEvent) error { return nil }
func (Nop) Close() error                                            { return nil }
