// Package sqlite provides a SQLite-backed progression storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/storyquest/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
	"github.com/louisbranch/storyquest/internal/services/progression/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// dbtx is the query surface shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements reads and writes against one dbtx.
type queries struct {
	db dbtx
}

// txStore is the storage.Tx handed to WithTx callbacks.
type txStore struct {
	queries
}

// Store persists progression state in SQLite. Single-record writes called on
// the Store run in their own transaction.
type Store struct {
	queries
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite progression store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{queries: queries{db: sqlDB}, sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// WithTx runs fn in one transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if fn == nil {
		return fmt.Errorf("transaction callback is required")
	}
	return s.withTx(ctx, func(tx *txStore) error { return fn(tx) })
}

func (s *Store) withTx(ctx context.Context, fn func(tx *txStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&txStore{queries: queries{db: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// classify wraps err, surfacing lock contention as storage.ErrConflict.
func classify(op string, err error) error {
	if isBusy(err) {
		return fmt.Errorf("%s: %w: %v", op, storage.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func normalizePageSize(size int) int {
	switch {
	case size <= 0:
		return defaultPageSize
	case size > maxPageSize:
		return maxPageSize
	default:
		return size
	}
}

// parseCursor decodes a page token holding the last seen row position.
func parseCursor(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(token, 10, 64)
	if err != nil || cursor < 0 {
		return 0, fmt.Errorf("invalid page token %q", token)
	}
	return cursor, nil
}

func whereFilter(clause string) string {
	if strings.TrimSpace(clause) == "" {
		return ""
	}
	return " AND (" + clause + ")"
}

var (
	_ storage.Store = (*Store)(nil)
	_ storage.Tx    = (*txStore)(nil)
)
