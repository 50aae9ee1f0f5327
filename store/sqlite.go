// File: store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/lguibr/dflow/value"
)

// SQLStore keeps values JSON-encoded in an in-memory SQLite database. Nothing
// is written to disk.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens a private in-memory database.
func NewSQLStore() (*SQLStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value_json TEXT NOT NULL
	);`)
	return err
}

func (s *SQLStore) Get(ctx context.Context, key string) (value.Complete, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value_json FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	v, err := value.UnmarshalJSON([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("decode %q: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, v value.Complete) error {
	data, err := value.MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value_json) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value_json = excluded.value_json`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
