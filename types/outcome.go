package types

// RowOutcome classifies what happened to one input row. Every row ends up
// with exactly one outcome; the pipeline never drops a row silently.
type RowOutcome string

const (
	RowAccepted  RowOutcome = "accepted"
	RowRejected  RowOutcome = "rejected"
	RowDuplicate RowOutcome = "duplicate"
	RowFailed    RowOutcome = "failed"
)

// ValidatedRow is a row annotated with its validation/dedup outcome.
// Reason is set for rejected and failed rows, verbatim from the validator or
// store classification.
type ValidatedRow struct {
	Row     Row
	Outcome RowOutcome
	Reason  string
}

// ChunkState tracks a chunk through execution. RolledBack chunks re-enter
// Executing via Retrying until the attempt ceiling, then move to RowFallback.
type ChunkState string

const (
	ChunkPending      ChunkState = "pending"
	ChunkExecuting    ChunkState = "executing"
	ChunkCommitted    ChunkState = "committed"
	ChunkRetrying     ChunkState = "retrying"
	ChunkRowFallback  ChunkState = "row_fallback"
	ChunkFailed       ChunkState = "failed"
	ChunkNotAttempted ChunkState = "not_attempted"
)

// ChunkOutcome is the terminal result of one chunk's execution.
type ChunkOutcome struct {
	Kind       Kind
	State      ChunkState
	Committed  int        // rows persisted
	Duplicates int        // rows skipped by the store's uniqueness constraint
	Attempts   int        // retry attempts consumed
	RowErrors  []RowError // per-row failures surfaced by row fallback
	Err        error      // terminal chunk error, nil unless State == ChunkFailed
}

// RowError identifies one failed row for the report.
type RowError struct {
	Kind    Kind   `json:"kind"`
	Index   int    `json:"index"`
	Message string `json:"message"`
}
