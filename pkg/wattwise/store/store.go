package store

import (
	"context"
	"time"

	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// Scope narrows a record query to one owner, one zone, or both. Empty
// fields match everything.
type Scope struct {
	OwnerID string
	ZoneID  string
}

// Matches reports whether a record falls inside the scope.
func (s Scope) Matches(rec types.WorkloadRecord) bool {
	if s.OwnerID != "" && rec.OwnerID != s.OwnerID {
		return false
	}
	if s.ZoneID != "" && rec.ZoneID != s.ZoneID {
		return false
	}
	return true
}

// RecordStore persists the synthetic workload ledger. Implementations must
// be safe for concurrent use.
type RecordStore interface {
	// InsertBatch persists a batch of records and returns how many were
	// accepted. A batch either lands fully or not at all; prior batches
	// are never rolled back.
	InsertBatch(ctx context.Context, batch []types.WorkloadRecord) (int, error)
	// Query returns records whose submission time falls inside
	// [start, end], optionally narrowed by scope.
	Query(ctx context.Context, scope Scope, start, end time.Time) ([]types.WorkloadRecord, error)
	Close() error
}
