// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps a history of pipeline runs in SQLite: the query,
// the outcome, and the records each successful run produced.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// timeLayout is fixed-width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when no run matches an identifier.
var ErrRunNotFound = errors.New("run not found")

// Run is one pipeline invocation.
type Run struct {
	ID         string        `json:"id" yaml:"id"`
	Query      string        `json:"query" yaml:"query"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Discovered int           `json:"discovered" yaml:"discovered"`
	Emitted    int           `json:"emitted" yaml:"emitted"`

	// Error is the failure message, empty for a successful run.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the run completed without error.
func (r Run) Succeeded() bool { return r.Error == "" }

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at cfg.Path and creates the
// schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			discovered INTEGER NOT NULL,
			emitted INTEGER NOT NULL,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			pmid TEXT NOT NULL,
			title TEXT,
			publication_date TEXT,
			commercial_authors TEXT,
			company_affiliations TEXT,
			email TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_records_pmid ON records(pmid)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores run and its records in one transaction and returns the
// run ID. An empty run.ID gets a new random UUID.
func (s *Store) SaveRun(ctx context.Context, run Run, records []types.PaperRecord) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, started_at, duration_ms, discovered, emitted, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.StartedAt.UTC().Format(timeLayout),
		run.Duration.Milliseconds(), run.Discovered, run.Emitted, run.Error,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, position, pmid, title, publication_date, commercial_authors, company_affiliations, email)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		authorsJSON, err := json.Marshal(r.CommercialAuthors)
		if err != nil {
			return "", fmt.Errorf("encoding authors of %s: %w", r.ID, err)
		}
		affiliationsJSON, err := json.Marshal(r.CompanyAffiliations)
		if err != nil {
			return "", fmt.Errorf("encoding affiliations of %s: %w", r.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			run.ID, i, r.ID, r.Title, r.PublicationDate,
			string(authorsJSON), string(affiliationsJSON), r.CorrespondingEmail,
		)
		if err != nil {
			return "", fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns
// all of them.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, query, started_at, duration_ms, discovered, emitted, COALESCE(error, '')
		FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose ID equals id or, failing that, the single
// run whose ID starts with id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	if id == "" {
		return Run{}, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, started_at, duration_ms, discovered, emitted, COALESCE(error, '')
		 FROM runs WHERE id = ? OR substr(id, 1, ?) = ?
		 ORDER BY id = ? DESC LIMIT 2`,
		id, len(id), id, id)
	if err != nil {
		return Run{}, fmt.Errorf("looking up run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	switch {
	case len(matches) == 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case matches[0].ID == id, len(matches) == 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("run prefix %q is ambiguous", id)
	}
}

// RunRecords returns the records saved for runID in their original order.
func (s *Store) RunRecords(ctx context.Context, runID string) ([]types.PaperRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pmid, title, publication_date, commercial_authors, company_affiliations, email
		 FROM records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := []types.PaperRecord{}
	for rows.Next() {
		var (
			r                            types.PaperRecord
			authorsJSON, affiliationJSON string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.PublicationDate, &authorsJSON, &affiliationJSON, &r.CorrespondingEmail); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &r.CommercialAuthors); err != nil {
			return nil, fmt.Errorf("decoding authors of %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(affiliationJSON), &r.CompanyAffiliations); err != nil {
			return nil, fmt.Errorf("decoding affiliations of %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run        Run
		startedAt  string
		durationMS int64
	)
	if err := rows.Scan(&run.ID, &run.Query, &startedAt, &durationMS, &run.Discovered, &run.Emitted, &run.Error); err != nil {
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing start time of run %s: %w", run.ID, err)
	}
	run.StartedAt = t
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}
