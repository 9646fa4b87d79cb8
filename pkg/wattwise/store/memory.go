package store

import (
	"context"
	"sync"
	"time"

	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// MemoryStore is a thread-safe in-memory RecordStore. It backs tests and
// demo serving and can be swapped for the SQLite store without changing
// callers.
type MemoryStore struct {
	mu      sync.RWMutex
	records []types.WorkloadRecord

	// FailBatches, when set, makes the next N InsertBatch calls fail.
	// Used by tests to exercise partial-insert recovery.
	FailBatches int
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertBatch appends a batch of records.
func (s *MemoryStore) InsertBatch(_ context.Context, batch []types.WorkloadRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailBatches > 0 {
		s.FailBatches--
		return 0, errInjectedFailure
	}
	s.records = append(s.records, batch...)
	return len(batch), nil
}

// Query returns a copy of the records submitted within [start, end] that
// match the scope.
func (s *MemoryStore) Query(_ context.Context, scope Scope, start, end time.Time) ([]types.WorkloadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.WorkloadRecord
	for _, rec := range s.records {
		if rec.SubmittedAt.Before(start) || rec.SubmittedAt.After(end) {
			continue
		}
		if !scope.Matches(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Size returns the number of stored records.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

type injectedFailure struct{}

func (injectedFailure) Error() string { return "injected batch failure" }

var errInjectedFailure = injectedFailure{}
