// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records every processing run in a SQLite database so that
// batches can skip files that already converted and operators can audit
// failures.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docpipe/pkg/types"
)

// hashLen is the number of hex characters of the SHA-256 kept as the
// content hash.
const hashLen = 16

// Entry is one recorded run.
type Entry struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	Path        string              `json:"path" yaml:"path"`
	Name        string              `json:"name" yaml:"name"`
	Hash        string              `json:"hash" yaml:"hash"`
	Format      types.Format        `json:"format" yaml:"format"`
	Strategy    types.Strategy      `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Success     bool                `json:"success" yaml:"success"`
	Partial     bool                `json:"partial" yaml:"partial"`
	Units       int                 `json:"units" yaml:"units"`
	Attempts    int                 `json:"attempts" yaml:"attempts"`
	Failures    []types.UnitFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
	Duration    time.Duration       `json:"duration" yaml:"duration"`
	TextLength  int                 `json:"text_length" yaml:"text_length"`
	OutputPath  string              `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	ProcessedAt time.Time           `json:"processed_at" yaml:"processed_at"`
}

// EntryFromOutcome builds the ledger row for out.
func EntryFromOutcome(out *types.Outcome, hash, outputPath string, at time.Time) Entry {
	return Entry{
		RunID:       out.RunID,
		Path:        out.Path,
		Name:        filepath.Base(out.Path),
		Hash:        hash,
		Format:      out.Format,
		Strategy:    out.Strategy,
		Success:     out.Success,
		Partial:     out.Partial,
		Units:       out.Units,
		Attempts:    out.Attempts,
		Failures:    out.Failures,
		Error:       out.Error,
		Duration:    out.Duration,
		TextLength:  len([]rune(out.Markdown)),
		OutputPath:  outputPath,
		ProcessedAt: at.UTC(),
	}
}

// FileHash returns the first 16 hex characters of the file's SHA-256.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil))[:hashLen], nil
}

// Store is the SQLite-backed ledger.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
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
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			hash TEXT NOT NULL,
			format TEXT NOT NULL,
			strategy TEXT,
			success INTEGER NOT NULL,
			partial INTEGER NOT NULL,
			units INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			failures TEXT,
			error TEXT,
			duration_ms INTEGER NOT NULL,
			text_length INTEGER NOT NULL,
			output_path TEXT,
			processed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(hash)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_processed_at ON runs(processed_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores e. Recording the same run ID twice replaces the earlier row.
func (s *Store) Record(ctx context.Context, e Entry) error {
	failures, err := json.Marshal(e.Failures)
	if err != nil {
		return fmt.Errorf("encoding failures: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, path, name, hash, format, strategy, success, partial,
			units, attempts, failures, error, duration_ms, text_length, output_path, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			path=excluded.path, name=excluded.name, hash=excluded.hash, format=excluded.format,
			strategy=excluded.strategy, success=excluded.success, partial=excluded.partial,
			units=excluded.units, attempts=excluded.attempts, failures=excluded.failures,
			error=excluded.error, duration_ms=excluded.duration_ms, text_length=excluded.text_length,
			output_path=excluded.output_path, processed_at=excluded.processed_at`,
		e.RunID, e.Path, e.Name, e.Hash, string(e.Format), string(e.Strategy),
		e.Success, e.Partial, e.Units, e.Attempts, string(failures), e.Error,
		e.Duration.Milliseconds(), e.TextLength, e.OutputPath,
		e.ProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", e.RunID, err)
	}
	return nil
}

// Succeeded reports whether any run of content with this hash succeeded.
// Partial successes count.
func (s *Store) Succeeded(ctx context.Context, hash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM runs WHERE hash = ? AND success = 1`, hash,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying ledger: %w", err)
	}
	return n > 0, nil
}

// ListOptions filters List.
type ListOptions struct {
	// Limit caps the number of rows; zero means no limit.
	Limit int

	// FailedOnly keeps only unsuccessful runs.
	FailedOnly bool
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT run_id, path, name, hash, format, strategy, success, partial, units,
		attempts, failures, error, duration_ms, text_length, output_path, processed_at
		FROM runs`
	var args []any
	if opts.FailedOnly {
		query += ` WHERE success = 0`
	}
	query += ` ORDER BY processed_at DESC, rowid DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                          Entry
			format, strategy           string
			failures, errText, outPath sql.NullString
			durationMS                 int64
			processedAt                string
		)
		if err := rows.Scan(&e.RunID, &e.Path, &e.Name, &e.Hash, &format, &strategy,
			&e.Success, &e.Partial, &e.Units, &e.Attempts, &failures, &errText,
			&durationMS, &e.TextLength, &outPath, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.Format = types.Format(format)
		e.Strategy = types.Strategy(strategy)
		e.Error = errText.String
		e.OutputPath = outPath.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if failures.Valid && failures.String != "" && failures.String != "null" {
			if err := json.Unmarshal([]byte(failures.String), &e.Failures); err != nil {
				return nil, fmt.Errorf("decoding failures of run %s: %w", e.RunID, err)
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, processedAt); err == nil {
			e.ProcessedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
