// Package sqlitemigrate applies embedded SQL migrations to SQLite databases.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"slices"
	"strings"
	"time"
)

const (
	migrationTable = "schema_migrations"
	upMarker       = "-- +migrate Up"
	downMarker     = "-- +migrate Down"
)

// Migration is one embedded SQL file reduced to its up section.
type Migration struct {
	Name string
	Up   string
}

// Load reads every .sql file directly under root, ordered by name. Files
// whose up section is blank are skipped.
func Load(fsys fs.FS, root string) ([]Migration, error) {
	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		root = "."
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := path.Join(root, entry.Name())
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		up := UpSection(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}
		migrations = append(migrations, Migration{Name: name, Up: up})
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return strings.Compare(a.Name, b.Name) })
	return migrations, nil
}

// Apply runs the migrations not yet recorded in schema_migrations and returns
// the names it applied. Each migration commits together with its record, so a
// failed file is retried on the next start.
func Apply(ctx context.Context, sqlDB *sql.DB, migrations []Migration) ([]string, error) {
	if sqlDB == nil {
		return nil, errors.New("sql db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}

	done, err := appliedNames(ctx, sqlDB)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, migration := range migrations {
		if done[migration.Name] {
			continue
		}
		if err := applyOne(ctx, sqlDB, migration); err != nil {
			return applied, err
		}
		applied = append(applied, migration.Name)
	}
	return applied, nil
}

// ApplyMigrations loads the migrations under root and applies the pending ones.
func ApplyMigrations(ctx context.Context, sqlDB *sql.DB, fsys fs.FS, root string) error {
	migrations, err := Load(fsys, root)
	if err != nil {
		return err
	}
	applied, err := Apply(ctx, sqlDB, migrations)
	if len(applied) > 0 {
		log.Printf("sqlitemigrate: applied count=%d last=%s", len(applied), applied[len(applied)-1])
	}
	return err
}

// UpSection returns the SQL between the up and down markers. Content without
// an up marker is returned whole.
func UpSection(content string) string {
	_, up, found := strings.Cut(content, upMarker)
	if !found {
		return content
	}
	up, _, _ = strings.Cut(up, downMarker)
	return up
}

func applyOne(ctx context.Context, sqlDB *sql.DB, migration Migration) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", migration.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migration.Up); err != nil && !idempotentDDL(err) {
		return fmt.Errorf("exec migration %s: %w", migration.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
		migration.Name, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("record migration %s: %w", migration.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", migration.Name, err)
	}
	return nil
}

func appliedNames(ctx context.Context, sqlDB *sql.DB) (map[string]bool, error) {
	rows, err := sqlDB.QueryContext(ctx, "SELECT name FROM "+migrationTable)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		done[name] = true
	}
	return done, rows.Err()
}

// idempotentDDL reports DDL errors that mean the change is already in place.
func idempotentDDL(err error) bool {
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}
