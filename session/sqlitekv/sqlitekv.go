// Package sqlitekv stores the session KV in a single-table SQLite database.
package sqlitekv

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/session"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

var _ session.KV = (*Store)(nil)

type Store struct {
	conn *sql.DB
}

// Open creates the database file (and its directory) if needed
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrapf(err, "sqlitekv.Open: create directory")
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "sqlitekv.Open: open %s", path)
	}
	// One writer at a time; SQLite serialises them anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "sqlitekv.Open: ping")
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "sqlitekv.Open: create schema")
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) GetMany(keys ...string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	query := "SELECT key, value FROM kv WHERE key IN (" + placeholders(len(keys)) + ")"
	rows, err := s.conn.QueryContext(context.Background(), query, args(keys)...)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlitekv.GetMany")
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrapf(err, "sqlitekv.GetMany: scan")
		}
		found[k] = v
	}
	return found, errors.Wrapf(rows.Err(), "sqlitekv.GetMany: rows")
}

func (s *Store) SetMany(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	return s.withTx(context.Background(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for k, v := range values {
			if _, err := stmt.Exec(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query := "DELETE FROM kv WHERE key IN (" + placeholders(len(keys)) + ")"
	_, err := s.conn.ExecContext(context.Background(), query, args(keys)...)
	return errors.Wrapf(err, "sqlitekv.Delete")
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "sqlitekv: begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "sqlitekv: transaction")
	}
	return errors.Wrapf(tx.Commit(), "sqlitekv: commit")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func args(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
