// Package db persists run history in SQLite for analytics. Writes are best
// effort: the agent loop never fails because history could not be recorded.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// DefaultDBPath returns ~/.mend/mend.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	dir := filepath.Join(home, ".mend")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "mend.db"), nil
}

// Open opens or creates the database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying *sql.DB for advanced queries.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT NOT NULL UNIQUE,
    goal         TEXT NOT NULL,
    total_steps  INTEGER NOT NULL,
    passed_steps INTEGER NOT NULL,
    pass_rate    REAL NOT NULL,
    duration_ms  INTEGER NOT NULL,
    summary      TEXT,
    timestamp    TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(timestamp DESC);

CREATE TABLE IF NOT EXISTS step_results (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id        TEXT NOT NULL,
    step_id       TEXT NOT NULL,
    title         TEXT NOT NULL,
    action        TEXT NOT NULL,
    risk          TEXT NOT NULL,
    exec_ok       BOOLEAN NOT NULL,
    passed        BOOLEAN NOT NULL,
    reason        TEXT,
    duration_ms   INTEGER NOT NULL,
    output_tail   TEXT,
    timestamp     TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_steps_run ON step_results(run_id);
CREATE INDEX IF NOT EXISTS idx_steps_action ON step_results(action);
`

// Migrate applies the database schema.
func (d *DB) Migrate() error {
	var count int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = 1").Scan(&count)
	if err == nil && count > 0 {
		return nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaV1); err != nil {
		return fmt.Errorf("apply schema v1: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// LogRun records one completed agent run.
func (d *DB) LogRun(runID, goal string, totalSteps, passedSteps int, passRate float64, durationMs int64, summary string) error {
	_, err := d.conn.Exec(
		`INSERT INTO runs (run_id, goal, total_steps, passed_steps, pass_rate, duration_ms, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, goal, totalSteps, passedSteps, passRate, durationMs, summary,
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}

// LogStep records one step outcome within a run.
func (d *DB) LogStep(runID, stepID, title, action, risk string, execOK, passed bool, reason string, durationMs int64, outputTail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO step_results (run_id, step_id, title, action, risk, exec_ok, passed, reason, duration_ms, output_tail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, stepID, title, action, risk, execOK, passed, reason, durationMs, outputTail,
	)
	if err != nil {
		return fmt.Errorf("log step: %w", err)
	}
	return nil
}

// Reset drops all tables and re-applies the schema.
func (d *DB) Reset() error {
	tables := []string{"step_results", "runs", "schema_version"}
	for _, t := range tables {
		if _, err := d.conn.Exec("DROP TABLE IF EXISTS " + t); err != nil {
			return fmt.Errorf("drop table %s: %w", t, err)
		}
	}
	return d.Migrate()
}
