// Package store persists review runs and their merged findings in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"loupe/internal/finding"
)

// Store provides persistence for review runs.
type Store interface {
	// SaveRun inserts a run and its findings and returns the run ID.
	SaveRun(r Run, findings []finding.MergedFinding) (int64, error)
	// GetRun returns one run by ID.
	GetRun(id int64) (Run, error)
	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]Run, error)
	// GetFindings returns a run's findings ordered by line.
	GetFindings(runID int64) ([]finding.MergedFinding, error)
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveRun(r Run, findings []finding.MergedFinding) (int64, error) {
	failed, err := json.Marshal(r.FailedChunks)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO runs (path, model, elapsed_ms, chunk_count, failed_chunks) VALUES (?, ?, ?, ?, ?)",
		r.Path, r.Model, r.ElapsedMs, r.ChunkCount, string(failed),
	)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		"INSERT INTO findings (run_id, category, severity, line, description, reasoning, confidence, chunks) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, f := range findings {
		chunks, err := json.Marshal(f.Chunks)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.Exec(runID, string(f.Category), string(f.Severity), f.Line, f.Description, f.Reasoning, f.Confidence, string(chunks)); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func (s *SQLiteStore) GetRun(id int64) (Run, error) {
	row := s.db.QueryRow(`
		SELECT r.id, r.path, r.model, r.started_at, r.elapsed_ms, r.chunk_count, r.failed_chunks,
		       (SELECT COUNT(*) FROM findings f WHERE f.run_id = r.id)
		FROM runs r WHERE r.id = ?`, id)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT r.id, r.path, r.model, r.started_at, r.elapsed_ms, r.chunk_count, r.failed_chunks,
		       (SELECT COUNT(*) FROM findings f WHERE f.run_id = r.id)
		FROM runs r ORDER BY r.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetFindings(runID int64) ([]finding.MergedFinding, error) {
	rows, err := s.db.Query(
		"SELECT category, severity, line, description, reasoning, confidence, chunks FROM findings WHERE run_id = ? ORDER BY line, id",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []finding.MergedFinding
	for rows.Next() {
		var f finding.MergedFinding
		var category, severity, chunks string
		if err := rows.Scan(&category, &severity, &f.Line, &f.Description, &f.Reasoning, &f.Confidence, &chunks); err != nil {
			return nil, err
		}
		f.Category = finding.Category(category)
		f.Severity = finding.Severity(severity)
		if err := json.Unmarshal([]byte(chunks), &f.Chunks); err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var failed string
	if err := row.Scan(&r.ID, &r.Path, &r.Model, &r.StartedAt, &r.ElapsedMs, &r.ChunkCount, &failed, &r.Findings); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(failed), &r.FailedChunks); err != nil {
		return Run{}, err
	}
	return r, nil
}
