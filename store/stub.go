package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/types"
)

// BatchCall records one InsertBatch invocation for test assertions.
type BatchCall struct {
	Kind types.Kind
	Rows int
}

// StubStore is an in-memory MetricStore for tests. Failures and duplicate
// counts are programmable per kind, and every call is recorded.
type StubStore struct {
	mu sync.Mutex

	// BatchErrs queues errors returned by InsertBatch per kind, consumed in
	// order. Once the queue drains, calls succeed.
	BatchErrs map[types.Kind][]error

	// RowErrs maps row index to the error InsertOne returns for it.
	RowErrs map[int]error

	// Duplicates is how many rows each successful InsertBatch reports as
	// skipped by the uniqueness constraint.
	Duplicates map[types.Kind]int

	// Unsupported marks kinds Supports should reject.
	Unsupported map[types.Kind]bool

	BatchCalls []BatchCall
	OneCalls   []int // row indexes passed to InsertOne
	Inserted   int
}

// NewStubStore creates an empty stub that accepts every kind and succeeds.
func NewStubStore() *StubStore {
	return &StubStore{
		BatchErrs:   make(map[types.Kind][]error),
		RowErrs:     make(map[int]error),
		Duplicates:  make(map[types.Kind]int),
		Unsupported: make(map[types.Kind]bool),
	}
}

var _ MetricStore = (*StubStore)(nil)

// FailBatch queues errs to be returned by successive InsertBatch calls for
// the kind.
func (s *StubStore) FailBatch(kind types.Kind, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BatchErrs[kind] = append(s.BatchErrs[kind], errs...)
}

// FailRow makes InsertOne return err for the given row index.
func (s *StubStore) FailRow(index int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RowErrs[index] = err
}

func (s *StubStore) Supports(kind types.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.Unsupported[kind]
}

func (s *StubStore) InsertBatch(ctx context.Context, userID uuid.UUID, kind types.Kind, rows []types.Row) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, Wrap(err, "insert_batch", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.BatchCalls = append(s.BatchCalls, BatchCall{Kind: kind, Rows: len(rows)})

	if queue := s.BatchErrs[kind]; len(queue) > 0 {
		err := queue[0]
		s.BatchErrs[kind] = queue[1:]
		if err != nil {
			return 0, err
		}
	}

	dup := s.Duplicates[kind]
	if dup > len(rows) {
		dup = len(rows)
	}
	inserted := len(rows) - dup
	s.Inserted += inserted
	return inserted, nil
}

func (s *StubStore) InsertOne(ctx context.Context, userID uuid.UUID, kind types.Kind, row types.Row) error {
	if err := ctx.Err(); err != nil {
		return Wrap(err, "insert_one", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.OneCalls = append(s.OneCalls, row.Index)

	if err, ok := s.RowErrs[row.Index]; ok {
		return err
	}
	s.Inserted++
	return nil
}
