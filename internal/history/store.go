package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stackpress/internal/pipeline"
)

// Store persists run history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run summarizes one recorded batch.
type Run struct {
	ID         string
	Dir        string
	StartedAt  time.Time
	FinishedAt time.Time
	Assets     int
	Failed     int
	Canceled   bool
}

// Asset is the recorded outcome of one asset within a run.
type Asset struct {
	RunID      string
	Position   int
	Base       string
	Path       string
	Pages      int
	FailedStep string
	Error      string
	Duration   time.Duration
}

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
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

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Record stores a finished run and its asset outcomes in one transaction.
func (s *Store) Record(ctx context.Context, report pipeline.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, dir, started_at, finished_at, assets, failed, canceled)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Dir,
		report.Started.UTC().Format(time.RFC3339Nano),
		report.Finished.UTC().Format(time.RFC3339Nano),
		len(report.Outcomes),
		report.Failed(),
		boolToInt(report.Canceled),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, outcome := range report.Outcomes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assets (run_id, position, base, path, pages, failed_step, error_message, duration_ms)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID,
			i,
			outcome.Base,
			outcome.Path,
			outcome.Pages,
			nullableString(string(outcome.FailedStep)),
			nullableString(outcome.Error),
			outcome.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert asset %s: %w", outcome.Base, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dir, started_at, finished_at, assets, failed, canceled
         FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
			canceled          int
		)
		if err := rows.Scan(&run.ID, &run.Dir, &started, &finished, &run.Assets, &run.Failed, &canceled); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.Canceled = canceled != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Assets returns the recorded outcomes for runID in manifest order.
func (s *Store) Assets(ctx context.Context, runID string) ([]Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, position, base, path, pages, failed_step, error_message, duration_ms
         FROM assets WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var (
			asset      Asset
			step, msg  sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&asset.RunID, &asset.Position, &asset.Base, &asset.Path, &asset.Pages, &step, &msg, &durationMS); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		asset.FailedStep = step.String
		asset.Error = msg.String
		asset.Duration = time.Duration(durationMS) * time.Millisecond
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
