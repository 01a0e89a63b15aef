// Package runledger persists a durable record of every action handed to
// the stage driver, so operators can audit what ran where and the
// pipeline can tell completed work from interrupted work after a restart.
package runledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"facetflow/internal/config"
	"facetflow/internal/driver"
)

// ErrRunNotFound indicates the requested run id is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "runledger.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the ledger database location.
func (s *Store) Path() string { return s.path }

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			direction TEXT NOT NULL,
			operation TEXT NOT NULL,
			action TEXT NOT NULL,
			parset_file TEXT NOT NULL,
			output_datamap TEXT,
			status TEXT NOT NULL,
			error_message TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_direction ON runs(direction);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init ledger schema: %w", err)
		}
	}
	return nil
}

// Record inserts a prepared run. A missing run ID gets a fresh UUID. It
// returns the stored record.
func (s *Store) Record(ctx context.Context, run driver.Run) (*Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Direction == "" {
		return nil, errors.New("run direction is required")
	}
	if run.Action == "" {
		return nil, errors.New("run action is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
			id, direction, operation, action, parset_file, output_datamap,
			status, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Direction,
		run.Operation,
		run.Action,
		run.ParsetFile,
		nullableString(run.OutputDatamap),
		StatusPrepared,
		nil,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetByID(ctx, run.ID)
}

// SetStatus transitions a run and records an optional error message.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, errorMessage string) error {
	if !status.Valid() {
		return fmt.Errorf("unknown run status %q", status)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(errorMessage),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetByID fetches one run.
func (s *Store) GetByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}
	return run, nil
}

// ListByDirection returns a direction's runs, newest first.
func (s *Store) ListByDirection(ctx context.Context, directionName string) ([]*Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		selectRuns+` WHERE direction = ? ORDER BY created_at DESC`,
		directionName,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const selectRuns = `SELECT id, direction, operation, action, parset_file,
	output_datamap, status, error_message, created_at, updated_at FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run          Run
		outputMap    sql.NullString
		errorMessage sql.NullString
		createdAt    string
		updatedAt    string
	)
	if err := row.Scan(
		&run.ID,
		&run.Direction,
		&run.Operation,
		&run.Action,
		&run.ParsetFile,
		&outputMap,
		&run.Status,
		&errorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.OutputDatamap = outputMap.String
	run.ErrorMessage = errorMessage.String
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	run.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
