package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"

	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// SQLStore implements RecordStore on top of database/sql. The production
// driver is SQLite; tests exercise the same code against a mock connection.
type SQLStore struct {
	db    *sql.DB
	mutex sync.RWMutex
}

// OpenSQLite opens (or creates) a SQLite-backed record store at dbPath.
func OpenSQLite(dbPath string) (*SQLStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL&_cache=shared")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	s := NewSQLStore(db)
	if err := s.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %v", err)
	}
	return s, nil
}

// NewSQLStore wraps an existing database handle. The caller is responsible
// for schema initialization when the handle does not point at a store
// created by OpenSQLite.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// InitSchema creates the workload ledger table and its indexes.
func (s *SQLStore) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workload_records (
		id TEXT PRIMARY KEY,
		workload_type TEXT NOT NULL,
		submitted_at DATETIME NOT NULL,
		gpu_minutes REAL NOT NULL,
		cpu_cores INTEGER NOT NULL,
		memory_gb INTEGER NOT NULL,
		urgency TEXT NOT NULL,
		energy_kwh REAL NOT NULL,
		cost_usd REAL NOT NULL,
		carbon_kg REAL NOT NULL,
		actual_start DATETIME NOT NULL,
		actual_end DATETIME NOT NULL,
		owner_id TEXT NOT NULL,
		zone_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_submitted_at ON workload_records(submitted_at);
	CREATE INDEX IF NOT EXISTS idx_owner_submitted ON workload_records(owner_id, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_zone_submitted ON workload_records(zone_id, submitted_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

const insertStmt = `
INSERT INTO workload_records (
	id, workload_type, submitted_at, gpu_minutes, cpu_cores, memory_gb,
	urgency, energy_kwh, cost_usd, carbon_kg, actual_start, actual_end,
	owner_id, zone_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertBatch persists a batch of records inside one transaction, so a
// batch lands fully or not at all.
func (s *SQLStore) InsertBatch(ctx context.Context, batch []types.WorkloadRecord) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin batch transaction: %v", err)
	}

	for _, rec := range batch {
		if _, err := tx.ExecContext(ctx, insertStmt,
			rec.ID,
			string(rec.Type),
			rec.SubmittedAt,
			rec.GPUMinutes,
			rec.CPUCores,
			rec.MemoryGB,
			string(rec.Urgency),
			rec.EnergyConsumedKWh,
			rec.CostUSD,
			rec.CarbonEmittedKg,
			rec.ActualStart,
			rec.ActualEnd,
			rec.OwnerID,
			rec.ZoneID,
		); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert record %s: %v", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %v", err)
	}

	klog.V(3).InfoS("Inserted workload batch", "size", len(batch))
	return len(batch), nil
}

// Query returns records submitted within [start, end], newest first,
// optionally narrowed to an owner and/or zone.
func (s *SQLStore) Query(ctx context.Context, scope Scope, start, end time.Time) ([]types.WorkloadRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	q := `
SELECT id, workload_type, submitted_at, gpu_minutes, cpu_cores, memory_gb,
       urgency, energy_kwh, cost_usd, carbon_kg, actual_start, actual_end,
       owner_id, zone_id
FROM workload_records
WHERE submitted_at BETWEEN ? AND ?`
	args := []any{start, end}

	if scope.OwnerID != "" {
		q += " AND owner_id = ?"
		args = append(args, scope.OwnerID)
	}
	if scope.ZoneID != "" {
		q += " AND zone_id = ?"
		args = append(args, scope.ZoneID)
	}
	q += " ORDER BY submitted_at DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workload records: %v", err)
	}
	defer rows.Close()

	var records []types.WorkloadRecord
	for rows.Next() {
		var rec types.WorkloadRecord
		var workloadType, urgency string
		if err := rows.Scan(
			&rec.ID,
			&workloadType,
			&rec.SubmittedAt,
			&rec.GPUMinutes,
			&rec.CPUCores,
			&rec.MemoryGB,
			&urgency,
			&rec.EnergyConsumedKWh,
			&rec.CostUSD,
			&rec.CarbonEmittedKg,
			&rec.ActualStart,
			&rec.ActualEnd,
			&rec.OwnerID,
			&rec.ZoneID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %v", err)
		}
		rec.Type = types.WorkloadType(workloadType)
		rec.Urgency = types.Urgency(urgency)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %v", err)
	}
	return records, nil
}

// Cleanup removes records older than retentionDays. Used when the dataset
// is regenerated on a rolling schedule.
func (s *SQLStore) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result, err := s.db.ExecContext(ctx, `DELETE FROM workload_records WHERE submitted_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old records: %v", err)
	}

	removed, _ := result.RowsAffected()
	klog.V(2).InfoS("Cleaned up old workload records", "cutoff", cutoff, "rowsDeleted", removed)
	return removed, nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.Close()
}
