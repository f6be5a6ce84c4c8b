package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/log"
	"github.com/vitalsink/vitalsink/types"
)

// DefaultMaxParameters is the PostgreSQL bound-parameter ceiling per
// statement. Chunk planning stays well under it; the store enforces it as a
// hard guard so a misplanned chunk fails loudly instead of at the wire.
const DefaultMaxParameters = 65535

// PostgresStore implements MetricStore over database/sql with the lib/pq
// driver. Each InsertBatch runs as one multi-row INSERT inside its own
// transaction, with ON CONFLICT DO NOTHING absorbing constraint duplicates.
type PostgresStore struct {
	db        *sql.DB
	maxParams int
	logger    *log.Logger
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithMaxParameters overrides the bound-parameter ceiling guard.
func WithMaxParameters(n int) PostgresOption {
	return func(s *PostgresStore) {
		if n > 0 {
			s.maxParams = n
		}
	}
}

// WithStoreLogger attaches a logger for statement-level diagnostics.
func WithStoreLogger(logger *log.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPostgresStore wraps an open database handle. The caller owns the
// handle's lifecycle; the store never closes it.
func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:        db,
		maxParams: DefaultMaxParameters,
		logger:    log.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ MetricStore = (*PostgresStore)(nil)

// Supports reports whether a table schema is registered for the kind.
func (s *PostgresStore) Supports(kind types.Kind) bool {
	_, ok := tableSpecs[kind]
	return ok
}

// InsertBatch writes all rows of one kind in a single transaction.
// Returns the count of rows actually inserted; the difference from len(rows)
// is rows skipped by ON CONFLICT DO NOTHING.
func (s *PostgresStore) InsertBatch(ctx context.Context, userID uuid.UUID, kind types.Kind, rows []types.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	spec, ok := tableSpecs[kind]
	if !ok {
		return 0, NewError(ErrUnsupportedKind, "insert_batch", kind, fmt.Errorf("no table for kind %q", kind))
	}

	cols := len(spec.columns)
	if cols > s.maxParams {
		return 0, NewError(ErrCapacity, "insert_batch", kind,
			fmt.Errorf("%d columns exceed %d parameter ceiling", cols, s.maxParams))
	}
	if len(rows)*cols > s.maxParams {
		return 0, NewError(ErrCapacity, "insert_batch", kind,
			fmt.Errorf("%d rows * %d columns exceed %d parameter ceiling", len(rows), cols, s.maxParams))
	}

	query, args, err := s.buildInsert(spec, userID, rows)
	if err != nil {
		return 0, NewError(ErrTerminal, "insert_batch", kind, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, Wrap(err, "insert_batch", kind)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, Wrap(err, "insert_batch", kind)
	}
	if err := tx.Commit(); err != nil {
		return 0, Wrap(err, "insert_batch", kind)
	}

	inserted64, err := res.RowsAffected()
	if err != nil {
		// pq always reports affected rows for INSERT; treat absence as a
		// full insert rather than failing a committed transaction.
		s.logger.Warn("rows affected unavailable", map[string]any{
			"kind": string(kind), "error": err.Error(),
		})
		return len(rows), nil
	}
	return int(inserted64), nil
}

// InsertOne writes a single row in its own statement. ErrDuplicate means the
// row already existed under the uniqueness constraint.
func (s *PostgresStore) InsertOne(ctx context.Context, userID uuid.UUID, kind types.Kind, row types.Row) error {
	spec, ok := tableSpecs[kind]
	if !ok {
		return NewError(ErrUnsupportedKind, "insert_one", kind, fmt.Errorf("no table for kind %q", kind))
	}

	query, args, err := s.buildInsert(spec, userID, []types.Row{row})
	if err != nil {
		return NewError(ErrTerminal, "insert_one", kind, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Wrap(err, "insert_one", kind)
	}
	inserted, err := res.RowsAffected()
	if err == nil && inserted == 0 {
		return NewError(ErrDuplicate, "insert_one", kind,
			fmt.Errorf("row at index %d skipped by conflict", row.Index))
	}
	return nil
}

// buildInsert renders the multi-row VALUES statement and flattens every
// metric through the kind's binder. Placeholders are numbered per pq's $n
// convention.
func (s *PostgresStore) buildInsert(spec tableSpec, userID uuid.UUID, rows []types.Row) (string, []any, error) {
	cols := len(spec.columns)
	args := make([]any, 0, len(rows)*cols)

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(spec.table)
	b.WriteString(" (")
	b.WriteString(strings.Join(spec.columns, ", "))
	b.WriteString(") VALUES ")

	n := 1
	for i, row := range rows {
		vals, err := spec.bind(userID, row.Metric)
		if err != nil {
			return "", nil, err
		}
		if len(vals) != cols {
			return "", nil, fmt.Errorf("binder produced %d values for %d columns", len(vals), cols)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range vals {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteByte(')')
		args = append(args, vals...)
	}

	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String(), args, nil
}
