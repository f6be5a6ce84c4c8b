// Package chunk sizes bulk writes against the store's bound-parameter
// ceiling. Planning is pure and deterministic: the same rows and limits
// always produce the same chunks.
package chunk

import (
	"github.com/vitalsink/vitalsink/types"
)

// Limits carries the planning inputs resolved from configuration.
type Limits struct {
	// MaxParameters is the store's hard ceiling on bound values per statement.
	MaxParameters int
	// SafetyMargin is subtracted from MaxParameters before sizing, keeping
	// headroom for statement variations.
	SafetyMargin int
	// PreferredRows, when > 0, caps the chunk's row count below the parameter
	// bound. Used to trade statement size against per-statement latency.
	PreferredRows int
	// MemoryScale scales chunk sizes down under memory pressure.
	// 1.0 means no pressure; 0 < scale < 1 shrinks chunks proportionally.
	MemoryScale float64
}

// Chunk is a contiguous run of accepted rows from one metric group.
// A chunk never spans two groups and never exceeds the parameter ceiling,
// except in the degenerate one-row case where the row alone is over the
// ceiling (surfaced by the executor as structurally unprocessable).
type Chunk struct {
	Kind types.Kind
	Rows []types.ValidatedRow
}

// RowsPerChunk computes the largest safe chunk size for a kind.
// Falls back to 1 when a single row's columns exceed the usable budget,
// which degrades the kind to row-by-row writes.
func RowsPerChunk(kind types.Kind, lim Limits) int {
	cols := kind.Columns()
	if cols <= 0 {
		return 1
	}

	budget := lim.MaxParameters - lim.SafetyMargin
	size := budget / cols
	if size < 1 {
		size = 1
	}

	if lim.PreferredRows > 0 && lim.PreferredRows < size {
		size = lim.PreferredRows
	}

	if lim.MemoryScale > 0 && lim.MemoryScale < 1 {
		size = int(float64(size) * lim.MemoryScale)
		if size < 1 {
			size = 1
		}
	}
	return size
}

// Plan splits the accepted rows of one group into chunks. Row order within a
// chunk preserves payload order so error indexes stay meaningful.
func Plan(kind types.Kind, rows []types.ValidatedRow, lim Limits) []Chunk {
	if len(rows) == 0 {
		return nil
	}

	size := RowsPerChunk(kind, lim)
	chunks := make([]Chunk, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, Chunk{Kind: kind, Rows: rows[start:end]})
	}
	return chunks
}
