// Package sqlite contains the SQLite-backed record store for convergence
// sweeps. All database read/write operations live here rather than in the
// sweep package, keeping the sweep logic free of SQL noise and easy to
// test against an in-memory store.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gravbench/shellbench/internal/sweep"
)

// Open opens (or creates) the sweep database at path, applies connection
// pragmas and runs any pending migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}

	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RecordStore provides persistence for convergence records and sweep-run
// bookkeeping. It implements sweep.RecordStore.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Has reports whether a record exists for the key.
func (s *RecordStore) Has(key string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM convergence_records WHERE record_key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking record %q: %w", key, err)
	}
	return n > 0, nil
}

// Get returns the record for the key. A row that exists but cannot be
// decoded is reported as an error so corruption is never papered over by
// a recompute.
func (s *RecordStore) Get(key string) (sweep.Record, error) {
	row := s.db.QueryRow(`
		SELECT field, grid_name, thickness, b_factor, delta_values, errors
		FROM convergence_records
		WHERE record_key = ?`, key)

	var rec sweep.Record
	var deltaJSON, errorsJSON string
	err := row.Scan(&rec.Field, &rec.GridName, &rec.Thickness, &rec.BFactor, &deltaJSON, &errorsJSON)
	if err != nil {
		return sweep.Record{}, fmt.Errorf("reading record %q: %w", key, err)
	}

	if rec.DeltaValues, err = decodeFloats(deltaJSON); err != nil {
		return sweep.Record{}, fmt.Errorf("record %q has malformed delta values: %w", key, err)
	}
	if rec.Errors, err = decodeFloats(errorsJSON); err != nil {
		return sweep.Record{}, fmt.Errorf("record %q has malformed errors: %w", key, err)
	}
	if err := rec.Validate(); err != nil {
		return sweep.Record{}, fmt.Errorf("record %q is inconsistent: %w", key, err)
	}
	return rec, nil
}

// Put persists a record. The primary key makes records write-once: a
// second insert for the same key fails.
func (s *RecordStore) Put(key string, rec sweep.Record) error {
	deltaJSON, err := encodeFloats(rec.DeltaValues)
	if err != nil {
		return fmt.Errorf("encoding delta values for %q: %w", key, err)
	}
	errorsJSON, err := encodeFloats(rec.Errors)
	if err != nil {
		return fmt.Errorf("encoding errors for %q: %w", key, err)
	}

	err = retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO convergence_records (
				record_key, field, grid_name, thickness, b_factor, delta_values, errors
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			key, rec.Field, rec.GridName, rec.Thickness, rec.BFactor, deltaJSON, errorsJSON,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting record %q: %w", key, err)
	}
	return nil
}

// List returns every stored record for the given field and grid, ordered
// by thickness then b factor. Used by the report generators.
func (s *RecordStore) List(field, gridName string) ([]sweep.Record, error) {
	rows, err := s.db.Query(`
		SELECT field, grid_name, thickness, b_factor, delta_values, errors
		FROM convergence_records
		WHERE field = ? AND grid_name = ?
		ORDER BY thickness, b_factor`, field, gridName)
	if err != nil {
		return nil, fmt.Errorf("listing records for %s/%s: %w", field, gridName, err)
	}
	defer rows.Close()

	var records []sweep.Record
	for rows.Next() {
		var rec sweep.Record
		var deltaJSON, errorsJSON string
		if err := rows.Scan(&rec.Field, &rec.GridName, &rec.Thickness, &rec.BFactor, &deltaJSON, &errorsJSON); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if rec.DeltaValues, err = decodeFloats(deltaJSON); err != nil {
			return nil, fmt.Errorf("record %q has malformed delta values: %w", rec.Key(), err)
		}
		if rec.Errors, err = decodeFloats(errorsJSON); err != nil {
			return nil, fmt.Errorf("record %q has malformed errors: %w", rec.Key(), err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordRun inserts a sweep-run bookkeeping row when a run starts.
func (s *RecordStore) RecordRun(state sweep.State) error {
	var startedAt string
	if state.StartedAt != nil {
		startedAt = state.StartedAt.UTC().Format(time.RFC3339)
	}
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sweep_runs (run_id, status, started_at)
			VALUES (?, ?, ?)`,
			state.RunID, string(state.Status), startedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", state.RunID, err)
	}
	return nil
}

// CompleteRun updates the bookkeeping row with the final run state.
func (s *RecordStore) CompleteRun(state sweep.State, stateJSON string) error {
	var completedAt string
	if state.CompletedAt != nil {
		completedAt = state.CompletedAt.UTC().Format(time.RFC3339)
	}
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			UPDATE sweep_runs
			SET status = ?, completed_at = ?, state_json = ?
			WHERE run_id = ?`,
			string(state.Status), completedAt, stateJSON, state.RunID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("updating run %s: %w", state.RunID, err)
	}
	return nil
}

// isSQLiteBusy reports whether the error is a transient SQLITE_BUSY
// contention error worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with a short backoff while it fails with
// SQLITE_BUSY. Non-busy errors fail immediately.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 5
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil || !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return err
}
