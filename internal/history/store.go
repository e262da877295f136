// Package history persists one row per completed run to a local SQLite
// file for trend queries, grounded in the pure-Go, cgo-free sqlite driver
// this tool's ambient stack already depends on elsewhere. This is a
// consumer of AuditReport external to the core: the core itself keeps no
// persisted state, only this optional reporting sink does.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/osiriscare/vpnsentry/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ran_at TEXT NOT NULL,
	score REAL NOT NULL,
	finding_count INTEGER NOT NULL,
	critical_count INTEGER NOT NULL,
	leak_count INTEGER NOT NULL
);`

// Store wraps a single-file SQLite database of run history.
type Store struct {
	db *sql.DB
}

// Open creates the database (and its schema) if it does not already
// exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one row for a completed run.
func (s *Store) Record(report *model.AuditReport) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (ran_at, score, finding_count, critical_count, leak_count) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		report.Score,
		len(report.AllFindings),
		len(report.CriticalFindings),
		len(report.TrafficMonitor.DetectedLeaks),
	)
	return err
}

// RunSummary is one row of recorded history.
type RunSummary struct {
	RanAt         time.Time
	Score         float64
	FindingCount  int
	CriticalCount int
	LeakCount     int
}

// Recent returns the most recent n runs, newest first.
func (s *Store) Recent(n int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT ran_at, score, finding_count, critical_count, leak_count FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var ranAtStr string
		var r RunSummary
		if err := rows.Scan(&ranAtStr, &r.Score, &r.FindingCount, &r.CriticalCount, &r.LeakCount); err != nil {
			return nil, err
		}
		r.RanAt, _ = time.Parse(time.RFC3339, ranAtStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
