package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vitalsink/vitalsink/types"
)

// PostgresArchive implements Archive over the raw_ingestions table.
type PostgresArchive struct {
	db *sql.DB
}

// NewPostgresArchive wraps an open database handle.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

var _ Archive = (*PostgresArchive)(nil)

// Create archives the raw payload with a pending status. If the same payload
// hash already exists for the user, the existing record is returned instead
// of archiving a second copy.
func (a *PostgresArchive) Create(ctx context.Context, userID uuid.UUID, raw []byte) (*types.RawIngestionRecord, error) {
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	rec := types.RawIngestionRecord{
		ID:          uuid.New(),
		UserID:      userID,
		PayloadHash: hash,
		SizeBytes:   int64(len(raw)),
		ReceivedAt:  time.Now().UTC(),
		Status:      types.ArchivePending,
	}

	const insert = `
		INSERT INTO raw_ingestions (id, user_id, payload, payload_hash, size_bytes, received_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := a.db.ExecContext(ctx, insert,
		rec.ID, rec.UserID, raw, rec.PayloadHash, rec.SizeBytes, rec.ReceivedAt, string(rec.Status))
	if err == nil {
		return &rec, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		existing, lookupErr := a.byHash(ctx, userID, hash)
		if lookupErr != nil {
			return nil, Wrap(lookupErr, "archive_create", "")
		}
		return existing, nil
	}
	return nil, Wrap(err, "archive_create", "")
}

func (a *PostgresArchive) byHash(ctx context.Context, userID uuid.UUID, hash string) (*types.RawIngestionRecord, error) {
	const query = `
		SELECT id, user_id, payload_hash, size_bytes, received_at, status, COALESCE(error_summary, '')
		FROM raw_ingestions
		WHERE user_id = $1 AND payload_hash = $2`
	var rec types.RawIngestionRecord
	var status string
	err := a.db.QueryRowContext(ctx, query, userID, hash).Scan(
		&rec.ID, &rec.UserID, &rec.PayloadHash, &rec.SizeBytes,
		&rec.ReceivedAt, &status, &rec.ErrorSummary)
	if err != nil {
		return nil, err
	}
	rec.Status = types.ArchiveStatus(status)
	return &rec, nil
}

// Finalize transitions the record to its terminal status. Records already in
// a terminal status are left untouched, which keeps replay idempotent.
func (a *PostgresArchive) Finalize(ctx context.Context, id uuid.UUID, status types.ArchiveStatus, summary string) error {
	const update = `
		UPDATE raw_ingestions
		SET status = $2, error_summary = NULLIF($3, ''), processed_at = $4
		WHERE id = $1 AND status IN ('pending', 'processing')`
	_, err := a.db.ExecContext(ctx, update, id, string(status), summary, time.Now().UTC())
	return Wrap(err, "archive_finalize", "")
}

// ListUnfinished returns records that never reached a successful terminal
// status, oldest first.
func (a *PostgresArchive) ListUnfinished(ctx context.Context, limit int) ([]types.RawIngestionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, user_id, payload_hash, size_bytes, received_at, status, COALESCE(error_summary, '')
		FROM raw_ingestions
		WHERE status IN ('pending', 'processing', 'failed')
		ORDER BY received_at ASC
		LIMIT $1`
	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, Wrap(err, "archive_list", "")
	}
	defer rows.Close()

	var out []types.RawIngestionRecord
	for rows.Next() {
		var rec types.RawIngestionRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.PayloadHash, &rec.SizeBytes,
			&rec.ReceivedAt, &status, &rec.ErrorSummary); err != nil {
			return nil, Wrap(err, "archive_list", "")
		}
		rec.Status = types.ArchiveStatus(status)
		out = append(out, rec)
	}
	return out, Wrap(rows.Err(), "archive_list", "")
}

// Payload returns the archived raw bytes of one record.
func (a *PostgresArchive) Payload(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var raw []byte
	err := a.db.QueryRowContext(ctx, `SELECT payload FROM raw_ingestions WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewError(ErrTerminal, "archive_payload", "", fmt.Errorf("no archive record %s", id))
	}
	if err != nil {
		return nil, Wrap(err, "archive_payload", "")
	}
	return raw, nil
}

// StubArchive is an in-memory Archive for tests.
type StubArchive struct {
	CreateErr error

	Records   map[uuid.UUID]*types.RawIngestionRecord
	Payloads  map[uuid.UUID][]byte
	Finalized map[uuid.UUID]types.ArchiveStatus
	Summaries map[uuid.UUID]string
}

// NewStubArchive creates an empty in-memory archive.
func NewStubArchive() *StubArchive {
	return &StubArchive{
		Records:   make(map[uuid.UUID]*types.RawIngestionRecord),
		Payloads:  make(map[uuid.UUID][]byte),
		Finalized: make(map[uuid.UUID]types.ArchiveStatus),
		Summaries: make(map[uuid.UUID]string),
	}
}

var _ Archive = (*StubArchive)(nil)

func (a *StubArchive) Create(ctx context.Context, userID uuid.UUID, raw []byte) (*types.RawIngestionRecord, error) {
	if a.CreateErr != nil {
		return nil, a.CreateErr
	}
	sum := sha256.Sum256(raw)
	rec := &types.RawIngestionRecord{
		ID:          uuid.New(),
		UserID:      userID,
		PayloadHash: hex.EncodeToString(sum[:]),
		SizeBytes:   int64(len(raw)),
		ReceivedAt:  time.Now().UTC(),
		Status:      types.ArchivePending,
	}
	a.Records[rec.ID] = rec
	a.Payloads[rec.ID] = raw
	return rec, nil
}

func (a *StubArchive) Finalize(ctx context.Context, id uuid.UUID, status types.ArchiveStatus, summary string) error {
	a.Finalized[id] = status
	a.Summaries[id] = summary
	if rec, ok := a.Records[id]; ok {
		rec.Status = status
		rec.ErrorSummary = summary
	}
	return nil
}

func (a *StubArchive) ListUnfinished(ctx context.Context, limit int) ([]types.RawIngestionRecord, error) {
	var out []types.RawIngestionRecord
	for _, rec := range a.Records {
		switch rec.Status {
		case types.ArchivePending, types.ArchiveProcessing, types.ArchiveFailed:
			out = append(out, *rec)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (a *StubArchive) Payload(ctx context.Context, id uuid.UUID) ([]byte, error) {
	raw, ok := a.Payloads[id]
	if !ok {
		return nil, NewError(ErrTerminal, "archive_payload", "", fmt.Errorf("no archive record %s", id))
	}
	return raw, nil
}
