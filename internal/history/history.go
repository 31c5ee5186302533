// Package history keeps a local record of configure and verify runs so
// operators can answer "when was this target last hardened, and did it
// pass". Recording is best-effort and never fails the run it documents.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one completed command invocation.
type Run struct {
	ID        int64
	Timestamp time.Time
	Session   string
	Command   string
	User      string
	ExitCode  int
	LogPath   string
	Duration  time.Duration
}

// Store persists run records in a sqlite database.
type Store struct {
	mu sync.RWMutex
	db *sql.DB

	retentionDays int
}

// Open creates or opens the run history database at dbPath.
func Open(dbPath string, retentionDays int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			session TEXT NOT NULL,
			command TEXT NOT NULL,
			user TEXT NOT NULL,
			exit_code INTEGER NOT NULL,
			log_path TEXT,
			duration_ms INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
		CREATE INDEX IF NOT EXISTS idx_runs_command ON runs(command);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	if retentionDays <= 0 {
		retentionDays = 365
	}

	return &Store{db: db, retentionDays: retentionDays}, nil
}

// Record persists one run.
func (s *Store) Record(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO runs (timestamp, session, command, user, exit_code, log_path, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.Timestamp, run.Session, run.Command, run.User, run.ExitCode,
		run.LogPath, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, session, command, user, exit_code, log_path, duration_ms
		FROM runs ORDER BY timestamp DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var logPath sql.NullString
		var durationMS int64

		err := rows.Scan(&run.ID, &run.Timestamp, &run.Session, &run.Command,
			&run.User, &run.ExitCode, &logPath, &durationMS)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if logPath.Valid {
			run.LogPath = logPath.String
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond

		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune removes runs older than the retention period.
func (s *Store) Prune() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	result, err := s.db.Exec("DELETE FROM runs WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of recorded runs.
func (s *Store) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
