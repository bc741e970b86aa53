package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cmenning/asu-calculator/internal/chain"
	persistlog "github.com/cmenning/asu-calculator/internal/persistence/log"
)

// Fixed-width so that text ordering in sqlite matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteIndex is a queryable copy of the history log. The compressed JSONL
// files stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB
}

// Row is one indexed history entry.
type Row struct {
	ID           string
	RecordedAt   time.Time
	BaseUnits    int64
	ProgressTier string
	Progress     float64
	ChainDigest  string
	Counts       map[string]int64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chains (
			digest TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL,
			base_units INTEGER NOT NULL,
			progress_tier TEXT NOT NULL,
			progress REAL NOT NULL,
			chain_digest TEXT NOT NULL,
			counts_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_recorded_at ON entries(recorded_at);`,
		`CREATE TABLE IF NOT EXISTS entry_counts (
			entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			field TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (entry_id, field)
		);`,
		`CREATE TABLE IF NOT EXISTS archives (
			final_count INTEGER PRIMARY KEY,
			snapshot_path TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertChain stores the conversion table under its digest so entries can be
// tied back to the ratios they were computed with.
func (s *SQLiteIndex) UpsertChain(ctx context.Context, cfg *chain.Config) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	now := time.Now().UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO chains(digest,json,updated_at) VALUES(?,?,?)`, cfg.Digest(), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) RecordEntry(ctx context.Context, e persistlog.Entry) error {
	if s == nil {
		return nil
	}
	counts, err := json.Marshal(e.Counts)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries(id,recorded_at,base_units,progress_tier,progress,chain_digest,counts_json) VALUES(?,?,?,?,?,?,?)`,
		e.ID, e.RecordedAt.UTC().Format(timeLayout), e.BaseUnits, e.ProgressTier, e.Progress, e.ChainDigest, string(counts))
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO entry_counts(entry_id,field,count) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for field, n := range e.Counts {
		if _, err := stmt.ExecContext(ctx, e.ID, field, n); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) RecordArchive(ctx context.Context, finalCount int64, snapshotPath string, at time.Time) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO archives(final_count,snapshot_path,recorded_at) VALUES(?,?,?)`,
		finalCount, snapshotPath, at.UTC().Format(timeLayout))
	return err
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns
// every entry.
func (s *SQLiteIndex) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = -1 // no upper bound in sqlite
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,recorded_at,base_units,progress_tier,progress,chain_digest,counts_json
		 FROM entries ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r          Row
			recordedAt string
			counts     string
		)
		if err := rows.Scan(&r.ID, &recordedAt, &r.BaseUnits, &r.ProgressTier, &r.Progress, &r.ChainDigest, &counts); err != nil {
			return nil, err
		}
		if r.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("entry %s: recorded_at: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(counts), &r.Counts); err != nil {
			return nil, fmt.Errorf("entry %s: counts: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FieldSeries returns (recorded_at, count) pairs for one inventory field,
// oldest first.
func (s *SQLiteIndex) FieldSeries(ctx context.Context, field string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.recorded_at, c.count FROM entry_counts c JOIN entries e ON e.id = c.entry_id
		 WHERE c.field = ? ORDER BY e.recorded_at ASC`, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var (
			p  Point
			at string
		)
		if err := rows.Scan(&at, &p.Value); err != nil {
			return nil, err
		}
		if p.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Point is one recorded value of a single inventory field.
type Point struct {
	At    time.Time
	Value int64
}
