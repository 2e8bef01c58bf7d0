package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS frames (
    run_id   TEXT    NOT NULL,
    idx      INTEGER NOT NULL,
    start_ns INTEGER NOT NULL,
    dur_ns   INTEGER NOT NULL,
    xml      BLOB    NOT NULL,
    PRIMARY KEY (run_id, idx)
)`

// SQLiteStore keeps every run in one SQLite database file, one row per
// frame.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Put upserts r.
func (s *SQLiteStore) Put(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO frames (run_id, idx, start_ns, dur_ns, xml) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (run_id, idx) DO UPDATE SET
            start_ns = excluded.start_ns, dur_ns = excluded.dur_ns, xml = excluded.xml`,
		r.RunID, int64(r.Index), int64(r.Start), int64(r.Duration), r.XML,
	)
	if err != nil {
		return fmt.Errorf("put frame %d: %w", r.Index, err)
	}
	return nil
}

// List returns the frames of a run sorted by index.
func (s *SQLiteStore) List(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, start_ns, dur_ns, xml FROM frames WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			idx, start, dur int64
			data            []byte
		)
		if err := rows.Scan(&idx, &start, &dur, &data); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		out = append(out, Record{
			RunID:    runID,
			Index:    uint64(idx),
			Start:    time.Duration(start),
			Duration: time.Duration(dur),
			XML:      data,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
