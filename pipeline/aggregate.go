package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/types"
)

// aggregator folds row and chunk outcomes into the caller-facing report.
// Counts are always exact; only the error list is capped.
type aggregator struct {
	report    types.IngestionReport
	maxErrors int
	overflow  int
}

func newAggregator(ingestID, userID uuid.UUID, totalRows, maxErrors int) *aggregator {
	return &aggregator{
		report: types.IngestionReport{
			IngestID:         ingestID,
			UserID:           userID,
			TotalRows:        totalRows,
			DuplicatesByKind: make(map[types.Kind]int),
		},
		maxErrors: maxErrors,
	}
}

func (a *aggregator) addError(e types.RowError) {
	if len(a.report.Errors) < a.maxErrors {
		a.report.Errors = append(a.report.Errors, e)
		return
	}
	a.overflow++
}

// absorbRows accounts for rows that never reached the store: validation
// rejects and dedup-detected duplicates.
func (a *aggregator) absorbRows(kind types.Kind, rows []types.ValidatedRow) {
	for _, r := range rows {
		switch r.Outcome {
		case types.RowRejected:
			a.report.Rejected++
			a.addError(types.RowError{Kind: kind, Index: r.Row.Index, Message: r.Reason})
		case types.RowDuplicate:
			a.report.Duplicated++
			a.report.DuplicatesByKind[kind]++
		case types.RowFailed:
			a.report.Failed++
			a.addError(types.RowError{Kind: kind, Index: r.Row.Index, Message: r.Reason})
		}
	}
}

// absorbChunk accounts for one chunk's terminal outcome.
func (a *aggregator) absorbChunk(out types.ChunkOutcome, chunkRows int) {
	a.report.RetryAttempts += out.Attempts

	switch out.State {
	case types.ChunkCommitted, types.ChunkRowFallback:
		a.report.Accepted += out.Committed
		a.report.Duplicated += out.Duplicates
		if out.Duplicates > 0 {
			a.report.DuplicatesByKind[out.Kind] += out.Duplicates
		}
		a.report.Failed += len(out.RowErrors)
		for _, e := range out.RowErrors {
			a.addError(e)
		}
		if out.State == types.ChunkCommitted {
			a.report.ChunksCommitted++
		} else if len(out.RowErrors) > 0 {
			a.report.ChunksFailed++
		} else {
			a.report.ChunksCommitted++
		}

	case types.ChunkFailed:
		a.report.ChunksFailed++
		a.report.Failed += chunkRows
		for _, e := range out.RowErrors {
			a.addError(e)
		}

	case types.ChunkNotAttempted:
		a.report.ChunksNotAttempted++
		a.report.Failed += chunkRows
		a.addError(types.RowError{
			Kind:    out.Kind,
			Index:   -1,
			Message: fmt.Sprintf("%d rows not attempted before deadline", chunkRows),
		})
	}
}

func (a *aggregator) finish(elapsed time.Duration) *types.IngestionReport {
	a.report.Elapsed = elapsed
	a.report.ErrorsTruncated = a.overflow > 0
	if len(a.report.DuplicatesByKind) == 0 {
		a.report.DuplicatesByKind = nil
	}
	return &a.report
}
