// Package pipeline orchestrates one ingestion call: validation, dedup,
// chunk planning, parallel batch execution with retry, and report assembly.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/chunk"
	"github.com/vitalsink/vitalsink/log"
	"github.com/vitalsink/vitalsink/metrics"
	"github.com/vitalsink/vitalsink/store"
	"github.com/vitalsink/vitalsink/types"
)

// RetryPolicy bounds chunk-level retries of transient store failures.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// ChunkRunner executes a single chunk to a terminal ChunkOutcome.
// Transient failures retry the whole chunk with exponential backoff. Terminal
// failures, and transient ones that outlive the retry budget, degrade to
// row-by-row insertion so one poisoned row cannot sink its neighbors.
type ChunkRunner struct {
	store     store.MetricStore
	policy    RetryPolicy
	collector *metrics.Collector
	logger    *log.Logger
}

// NewChunkRunner creates a runner. The collector and logger may be nil.
func NewChunkRunner(s store.MetricStore, policy RetryPolicy, collector *metrics.Collector, logger *log.Logger) *ChunkRunner {
	if logger == nil {
		logger = log.Nop()
	}
	return &ChunkRunner{store: s, policy: policy, collector: collector, logger: logger}
}

func (r *ChunkRunner) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialBackoff
	b.MaxInterval = r.policy.MaxBackoff
	b.Multiplier = 2
	b.MaxElapsedTime = 0 // attempts are bounded by MaxRetries, not wall clock
	b.Reset()
	return b
}

// Run executes one chunk. Scheduling and backoff waits respect ctx; the
// store calls themselves run detached so a deadline arriving mid-statement
// never aborts a transaction that is already in flight.
func (r *ChunkRunner) Run(ctx context.Context, userID uuid.UUID, c chunk.Chunk) types.ChunkOutcome {
	out := types.ChunkOutcome{Kind: c.Kind, State: types.ChunkExecuting}
	rows := make([]types.Row, len(c.Rows))
	for i, vr := range c.Rows {
		rows[i] = vr.Row
	}

	storeCtx := context.WithoutCancel(ctx)
	bo := r.newBackoff()
	start := time.Now()

	var lastErr error
	for attempt := 0; ; attempt++ {
		inserted, err := r.store.InsertBatch(storeCtx, userID, c.Kind, rows)
		if err == nil {
			out.State = types.ChunkCommitted
			out.Committed = inserted
			out.Duplicates = len(rows) - inserted
			out.Attempts = attempt
			r.collector.IncChunkCommitted(string(c.Kind), time.Since(start))
			return out
		}
		lastErr = err

		if !store.Retriable(err) {
			return r.rowFallback(storeCtx, userID, c, rows, attempt, err)
		}
		if attempt >= r.policy.MaxRetries {
			// Retry budget spent. The batch statement is done, but single
			// rows may still land, so degrade instead of failing wholesale.
			return r.rowFallback(storeCtx, userID, c, rows, attempt, err)
		}
		if ctx.Err() != nil {
			// Deadline hit between attempts: stop retrying, report the
			// transient error as terminal for this call.
			break
		}

		out.State = types.ChunkRetrying
		wait := bo.NextBackOff()
		r.collector.IncRetryAttempt()
		r.logger.Warn("chunk retry scheduled", map[string]any{
			"kind":    string(c.Kind),
			"attempt": attempt + 1,
			"backoff": wait.String(),
			"error":   err.Error(),
		})
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
		out.Attempts = attempt + 1
	}

	out.State = types.ChunkFailed
	out.Err = lastErr
	out.RowErrors = chunkRowErrors(c, lastErr)
	r.collector.IncChunkFailed()
	r.logger.Error("chunk abandoned at deadline", map[string]any{
		"kind":     string(c.Kind),
		"rows":     len(rows),
		"attempts": out.Attempts,
		"error":    lastErr.Error(),
	})
	return out
}

// rowFallback replays a failed chunk row by row, isolating the rows the
// batch statement choked on.
func (r *ChunkRunner) rowFallback(ctx context.Context, userID uuid.UUID, c chunk.Chunk, rows []types.Row, attempts int, batchErr error) types.ChunkOutcome {
	out := types.ChunkOutcome{
		Kind:     c.Kind,
		State:    types.ChunkRowFallback,
		Attempts: attempts,
	}
	r.collector.IncRowFallback()
	r.logger.Warn("chunk degrading to row fallback", map[string]any{
		"kind":  string(c.Kind),
		"rows":  len(rows),
		"error": batchErr.Error(),
	})

	for _, row := range rows {
		err := r.store.InsertOne(ctx, userID, c.Kind, row)
		switch {
		case err == nil:
			out.Committed++
		case errors.Is(err, store.ErrDuplicate):
			out.Duplicates++
		default:
			out.RowErrors = append(out.RowErrors, types.RowError{
				Kind:    c.Kind,
				Index:   row.Index,
				Message: err.Error(),
			})
		}
	}
	return out
}

// chunkRowErrors attributes a whole-chunk failure to each of its rows so the
// report accounts for every one of them.
func chunkRowErrors(c chunk.Chunk, err error) []types.RowError {
	out := make([]types.RowError, len(c.Rows))
	for i, vr := range c.Rows {
		out[i] = types.RowError{Kind: c.Kind, Index: vr.Row.Index, Message: err.Error()}
	}
	return out
}
