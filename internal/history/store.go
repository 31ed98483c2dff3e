// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/fanout-tui/internal/tasks"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	// ErrNotFound is returned when no run has the requested ID.
	ErrNotFound = errors.New("run not found")

	// ErrDisabled is returned by front ends when the journal is turned off.
	ErrDisabled = errors.New("history is disabled (set history.enabled = true)")
)

// =============================================================================
// RECORD
// =============================================================================

// Record is one finished run as stored in the journal.
type Record struct {
	ID            string    `json:"id"`
	Policy        string    `json:"policy"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Status        string    `json:"status"`
	TaskCount     int       `json:"task_count"`
	ThresholdMs   int64     `json:"threshold_ms"`
	SlowCount     int       `json:"slow_count"`
	SentinelCount int       `json:"sentinel_count"`
	Entries       []string  `json:"entries,omitempty"`
}

// Duration returns how long the run took.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FromRun builds a record from a finished run and the log entries the owner
// held at that moment.
func FromRun(run *tasks.Run, entries []string) Record {
	finished := run.FinishedAt()
	if finished.IsZero() {
		finished = time.Now()
	}
	return Record{
		ID:            run.ID(),
		Policy:        run.Policy().String(),
		StartedAt:     run.StartedAt(),
		FinishedAt:    finished,
		Status:        run.Status().String(),
		TaskCount:     run.TaskCount(),
		ThresholdMs:   run.Threshold(),
		SlowCount:     run.SlowCount(),
		SentinelCount: run.SentinelCount(),
		Entries:       append([]string(nil), entries...),
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed journal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores rec and its entries in one transaction.
func (s *Store) Record(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, policy, started_at, finished_at, status, task_count, threshold_ms, slow_count, sentinel_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Policy, rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(), rec.Status,
		rec.TaskCount, rec.ThresholdMs, rec.SlowCount, rec.SentinelCount,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_entries WHERE run_id = ?", rec.ID); err != nil {
		return fmt.Errorf("reset entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO run_entries (run_id, position, entry) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare entries: %w", err)
	}
	defer stmt.Close()

	for i, entry := range rec.Entries {
		if _, err := stmt.ExecContext(ctx, rec.ID, i, entry); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// List returns up to limit runs, newest first, without their entries.
// A limit of zero or less returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, policy, started_at, finished_at, status, task_count, threshold_ms, slow_count, sentinel_count
		FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one run with its entries.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, policy, started_at, finished_at, status, task_count, threshold_ms, slow_count, sentinel_count
		FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 1`, id, id+"%")
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT entry FROM run_entries WHERE run_id = ? ORDER BY position", rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return Record{}, fmt.Errorf("scan entry: %w", err)
		}
		rec.Entries = append(rec.Entries, entry)
	}
	return rec, rows.Err()
}

// Count returns the number of stored runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// Prune keeps only the newest max runs. Zero or less keeps everything.
func (s *Store) Prune(ctx context.Context, max int) (int64, error) {
	if max <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?
		)`, max)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every run.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs"); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec               Record
		started, finished int64
	)
	err := sc.Scan(&rec.ID, &rec.Policy, &started, &finished, &rec.Status,
		&rec.TaskCount, &rec.ThresholdMs, &rec.SlowCount, &rec.SentinelCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan run: %w", err)
	}
	rec.StartedAt = time.UnixMilli(started)
	rec.FinishedAt = time.UnixMilli(finished)
	return rec, nil
}
