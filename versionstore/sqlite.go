package versionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// counterName is the row key the report counter lives under.  The table is
// deliberately generic so other pipeline counters can share it later.
const counterName = "report_version"

// SQLiteStore keeps the counter in a SQLite database.  Useful when the
// pipeline workspace is ephemeral and the counter lives on a mounted volume
// shared with other job state.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the counters database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("versionstore: couldn't open database: %w", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS counters (
    name  TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("versionstore: couldn't create counters table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Current(ctx context.Context) (int, error) {
	var value int
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = ?`, counterName).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("versionstore: couldn't read counter: %w", err)
	}

	if value < 1 {
		return 1, nil
	}

	return value, nil
}

func (s *SQLiteStore) Increment(ctx context.Context) (int, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}

	next := current + 1
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO counters (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		counterName, next)
	if err != nil {
		return 0, fmt.Errorf("versionstore: couldn't persist counter: %w", err)
	}

	return next, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
