// Package store persists metric chunks and raw-payload archive records.
//
// This file defines sentinel errors and a classified wrapper for store
// failures, so callers use errors.Is/errors.As for retry decisions instead
// of string matching.
package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/vitalsink/vitalsink/types"
)

// Sentinel errors for store failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrTransient indicates a failure worth retrying at chunk granularity
	// (connection loss, lock contention, resource exhaustion).
	ErrTransient = errors.New("transient store error")

	// ErrTerminal indicates the statement can never succeed as written
	// (constraint violation other than uniqueness, type mismatch).
	// Terminal chunks go to row-level fallback, not retry.
	ErrTerminal = errors.New("terminal store error")

	// ErrDuplicate indicates the row already exists under the store's
	// uniqueness constraint. A distinct outcome, not a failure.
	ErrDuplicate = errors.New("duplicate row")

	// ErrCapacity indicates a single row's column count alone exceeds the
	// bound-parameter ceiling. Structurally unprocessable.
	ErrCapacity = errors.New("row exceeds parameter ceiling")

	// ErrUnsupportedKind indicates no table schema is registered for the kind.
	ErrUnsupportedKind = errors.New("unsupported metric kind")
)

// Error wraps an underlying store failure with its classification.
// The original error stays in the chain for errors.As inspection.
type Error struct {
	// Kind is the classification sentinel (e.g. ErrTransient).
	Kind error
	// Op is the operation that failed (e.g. "insert_batch").
	Op string
	// Metric is the metric kind involved, if any.
	Metric types.Kind
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Metric != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Metric, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewError creates a classified store error.
func NewError(kind error, op string, metric types.Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Metric: metric, Err: err}
}

// Wrap classifies and wraps an operation error. Returns nil if err is nil.
func Wrap(err error, op string, metric types.Kind) error {
	if err == nil {
		return nil
	}
	return NewError(Classify(err), op, metric, err)
}

// Retriable reports whether the error is worth retrying at chunk granularity.
func Retriable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Classify determines the sentinel for a raw store error.
//
// PostgreSQL SQLSTATE classes:
//   - 08 (connection), 40 (rollback: serialization/deadlock),
//     53 (insufficient resources), 57P (operator intervention) retry
//   - 23505 (unique_violation) duplicate
//   - everything else in 22/23/42 (data, constraint, syntax) terminal
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTransient
	}
	if errors.Is(err, driver.ErrBadConn) {
		return ErrTransient
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" {
			return ErrDuplicate
		}
		switch pqErr.Code.Class() {
		case "08", "40", "53", "57":
			return ErrTransient
		default:
			return ErrTerminal
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTransient
	}

	// Unknown failures go terminal: row fallback isolates the damage, while
	// a misclassified retry would burn the whole backoff budget.
	return ErrTerminal
}
