// Package sqlite keeps output tables and, optionally, the checkpoint in a
// single SQLite file.
//
// Each fresh traversal attempt gets a row in runs; its records are kept in
// insertion order. The checkpoints table is a plain key/value store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Store implements ports.OutputStore and ports.CheckpointStore.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// The database runs in WAL mode with a single writer connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Create inserts a new run and returns its table.
func (s *Store) Create(ctx context.Context, meta domain.RunMetadata) (ports.OutputTable, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, last_run_at, invocations, completion) VALUES (?, ?, ?, ?, ?)`,
		meta.RunID, formatTime(meta.StartedAt), formatTime(meta.LastRunAt), meta.Invocations, string(meta.Completion),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("run sequence: %w", err)
	}
	return &Table{db: s.db, seq: seq}, nil
}

// Current returns the most recently created run.
func (s *Store) Current(ctx context.Context) (ports.OutputTable, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT seq FROM runs ORDER BY seq DESC LIMIT 1`).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoOutputTable
	}
	if err != nil {
		return nil, fmt.Errorf("select current run: %w", err)
	}
	return &Table{db: s.db, seq: seq}, nil
}

// Get returns the checkpoint blob stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM checkpoints WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select checkpoint: %w", err)
	}
	return blob, nil
}

// Set upserts the checkpoint blob.
func (s *Store) Set(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (key, blob) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET blob = excluded.blob`,
		key, blob,
	)
	if err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Table is one run's records and status.
type Table struct {
	db  *sql.DB
	seq int64
}

// Append adds rec after every existing record of this run.
func (t *Table) Append(ctx context.Context, rec domain.Record) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO records (run_seq, seq, path, kind, classification)
		 SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ? FROM records WHERE run_seq = ?`,
		t.seq, rec.Path, string(rec.Kind), string(rec.Classification), t.seq,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Records returns this run's records in insertion order.
func (t *Table) Records(ctx context.Context) ([]domain.Record, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT path, kind, classification FROM records WHERE run_seq = ? ORDER BY seq`, t.seq)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var path, kind, class string
		if err := rows.Scan(&path, &kind, &class); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		k, err := domain.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		c, err := domain.ParseClassification(class)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Record{Path: path, Kind: k, Classification: c})
	}
	return out, rows.Err()
}

// Status reads the run row.
func (t *Table) Status(ctx context.Context) (domain.RunMetadata, error) {
	var (
		meta             domain.RunMetadata
		started, lastRun string
		completion       string
	)
	err := t.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, last_run_at, invocations, completion FROM runs WHERE seq = ?`, t.seq,
	).Scan(&meta.RunID, &started, &lastRun, &meta.Invocations, &completion)
	if err != nil {
		return domain.RunMetadata{}, fmt.Errorf("select run: %w", err)
	}
	if meta.StartedAt, err = parseTime(started); err != nil {
		return domain.RunMetadata{}, err
	}
	if meta.LastRunAt, err = parseTime(lastRun); err != nil {
		return domain.RunMetadata{}, err
	}
	meta.Completion = domain.Completion(completion)
	return meta, nil
}

// SetStatus overwrites the run row. The run ID is fixed at creation.
func (t *Table) SetStatus(ctx context.Context, meta domain.RunMetadata) error {
	_, err := t.db.ExecContext(ctx,
		`UPDATE runs SET started_at = ?, last_run_at = ?, invocations = ?, completion = ? WHERE seq = ?`,
		formatTime(meta.StartedAt), formatTime(meta.LastRunAt), meta.Invocations, string(meta.Completion), t.seq,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
