package sqlitemigrate

import (
	"context"
	"database/sql"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyMigrationsCreatesSchemaOnce(t *testing.T) {
	db := openInMemoryDB(t)
	fsys := fstest.MapFS{
		"002_ledger.sql":  {Data: []byte("-- +migrate Up\nCREATE TABLE ledger(id TEXT PRIMARY KEY, user_id TEXT REFERENCES players(user_id));")},
		"001_players.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE players(user_id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE players;")},
		"README.md":       {Data: []byte("not a migration")},
	}

	for i := 0; i < 2; i++ {
		if err := ApplyMigrations(context.Background(), db, fsys, ""); err != nil {
			t.Fatalf("apply migrations pass %d: %v", i+1, err)
		}
	}

	if got := countRows(t, db, "schema_migrations"); got != 2 {
		t.Fatalf("schema_migrations rows = %d, want 2", got)
	}
	for _, table := range []string{"players", "ledger"} {
		if !tableExists(t, db, table) {
			t.Fatalf("table %s missing", table)
		}
	}
}

func TestApplyReportsOnlyPending(t *testing.T) {
	db := openInMemoryDB(t)
	first := []Migration{{Name: "001_players.sql", Up: "CREATE TABLE players(user_id TEXT PRIMARY KEY);"}}
	applied, err := Apply(context.Background(), db, first)
	if err != nil {
		t.Fatalf("apply first: %v", err)
	}
	if !slices.Equal(applied, []string{"001_players.sql"}) {
		t.Fatalf("applied = %v", applied)
	}

	second := append(first, Migration{Name: "002_missions.sql", Up: "CREATE TABLE missions(id TEXT PRIMARY KEY);"})
	applied, err = Apply(context.Background(), db, second)
	if err != nil {
		t.Fatalf("apply second: %v", err)
	}
	if !slices.Equal(applied, []string{"002_missions.sql"}) {
		t.Fatalf("applied = %v, want only the new migration", applied)
	}
}

func TestApplyLeavesFailedMigrationPending(t *testing.T) {
	db := openInMemoryDB(t)
	bad := []Migration{{Name: "001_bad.sql", Up: "CREAT TABLE players(id INT);"}}
	if _, err := Apply(context.Background(), db, bad); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if got := countRows(t, db, "schema_migrations"); got != 0 {
		t.Fatalf("schema_migrations rows = %d, want 0", got)
	}

	fixed := []Migration{{Name: "001_bad.sql", Up: "CREATE TABLE players(id INTEGER PRIMARY KEY);"}}
	if _, err := Apply(context.Background(), db, fixed); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if got := countRows(t, db, "schema_migrations"); got != 1 {
		t.Fatalf("schema_migrations rows = %d, want 1", got)
	}
}

func TestApplyToleratesExistingTable(t *testing.T) {
	db := openInMemoryDB(t)
	if _, err := db.Exec("CREATE TABLE players(user_id TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	migrations := []Migration{{Name: "001_players.sql", Up: "CREATE TABLE players(user_id TEXT PRIMARY KEY);"}}
	if _, err := Apply(context.Background(), db, migrations); err != nil {
		t.Fatalf("apply over existing table: %v", err)
	}
}

func TestApplyRequiresDB(t *testing.T) {
	if _, err := Apply(context.Background(), nil, nil); err == nil {
		t.Fatal("expected nil db error")
	}
}

func TestLoadUsesRootInNames(t *testing.T) {
	fsys := fstest.MapFS{
		"progression/001_players.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE players(user_id TEXT);")},
		"progression/002_empty.sql":   {Data: []byte("-- +migrate Up\n\n-- +migrate Down\nSELECT 1;")},
		"other/001_other.sql":         {Data: []byte("CREATE TABLE other(id TEXT);")},
	}
	migrations, err := Load(fsys, "progression/")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migrations) != 1 || migrations[0].Name != "progression/001_players.sql" {
		t.Fatalf("migrations = %+v", migrations)
	}
	if _, err := Load(fsys, "missing"); err == nil {
		t.Fatal("expected missing root error")
	}
}

func TestUpSection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no markers", content: "CREATE TABLE a(id INT);", want: "CREATE TABLE a(id INT);"},
		{name: "up only", content: "-- +migrate Up\nCREATE TABLE a(id INT);", want: "\nCREATE TABLE a(id INT);"},
		{name: "up and down", content: "-- +migrate Up\nCREATE TABLE a(id INT);\n-- +migrate Down\nDROP TABLE a;", want: "\nCREATE TABLE a(id INT);\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpSection(tt.content); got != tt.want {
				t.Fatalf("UpSection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// A pool would hand out separate in-memory databases.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count); err != nil {
		t.Fatalf("check table %s: %v", table, err)
	}
	return count == 1
}
