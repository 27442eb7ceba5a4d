package lixi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps records in a single key/value table of an embedded SQLite database
type SQLiteStore struct {
	sqlDB  *sql.DB
	logger Logger
	retry  retrier
}

// OpenSQLiteStore opens (creating if needed) the database at path
func OpenSQLiteStore(path string, logger Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{
		sqlDB:  sqlDB,
		logger: logger,
		retry:  newRetrier(DefaultRetryAttempts, DefaultRetryInterval, logger),
	}, nil
}

// Close closes the SQLite handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the record stored under key
func (s *SQLiteStore) Load(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidParameters.WithDetails("empty key")
	}

	var (
		value string
		found bool
	)
	err := s.retry.do(ctx, fmt.Sprintf("load[%s]", key), func() error {
		err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return "", false, ErrStorageFailure.WithCause(err).WithOperation("load")
	}

	return value, found, nil
}

// Save stores value under key, replacing any previous value
func (s *SQLiteStore) Save(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidParameters.WithDetails("empty key")
	}

	err := s.retry.do(ctx, fmt.Sprintf("save[%s]", key), func() error {
		_, err := s.sqlDB.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, time.Now().UTC().UnixMilli())
		return err
	})
	if err != nil {
		return ErrStorageFailure.WithCause(err).WithOperation("save")
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidParameters.WithDetails("empty key")
	}

	err := s.retry.do(ctx, fmt.Sprintf("remove[%s]", key), func() error {
		_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return ErrStorageFailure.WithCause(err).WithOperation("remove")
	}
	return nil
}
