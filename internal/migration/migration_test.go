package migration

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func files(m map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range m {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestApplyFromScratch(t *testing.T) {
	db := openTestDB(t)
	runner := NewRunner(db, files(map[string]string{
		"001_init.sql":  "CREATE TABLE habits (id TEXT PRIMARY KEY);",
		"002_notes.sql": "CREATE TABLE notes (key TEXT PRIMARY KEY); CREATE TABLE extra (id INTEGER);",
		"README.md":     "ignored",
	}), SQLite)

	applied, err := runner.Apply()
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("applied = %d, want 2", applied)
	}
	version, err := runner.CurrentVersion()
	if err != nil || version != 2 {
		t.Errorf("CurrentVersion() = %d, %v; want 2", version, err)
	}
	for _, table := range []string{"habits", "notes", "extra"} {
		var n int
		if err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&n); err != nil || n != 1 {
			t.Errorf("table %s not created", table)
		}
	}

	// Second run is a no-op.
	applied, err = runner.Apply()
	if err != nil || applied != 0 {
		t.Errorf("second Apply() = %d, %v; want 0, nil", applied, err)
	}
}

func TestApplyIncremental(t *testing.T) {
	db := openTestDB(t)
	first := map[string]string{"001_init.sql": "CREATE TABLE a (id INTEGER);"}
	if _, err := NewRunner(db, files(first), SQLite).Apply(); err != nil {
		t.Fatal(err)
	}

	first["002_more.sql"] = "CREATE TABLE b (id INTEGER);"
	applied, err := NewRunner(db, files(first), SQLite).Apply()
	if err != nil || applied != 1 {
		t.Errorf("Apply() = %d, %v; want 1, nil", applied, err)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := openTestDB(t)
	runner := NewRunner(db, files(map[string]string{
		"001_init.sql":   "CREATE TABLE a (id INTEGER);",
		"002_broken.sql": "CREATE TABLE b (id INTEGER); THIS IS NOT SQL;",
	}), SQLite)

	applied, err := runner.Apply()
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	if version, _ := runner.CurrentVersion(); version != 1 {
		t.Errorf("version = %d, want 1 after rollback", version)
	}
	var n int
	_ = db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name = 'b'").Scan(&n)
	if n != 0 {
		t.Error("table from failed migration should have been rolled back")
	}
}

func TestValidateNewerDatabase(t *testing.T) {
	db := openTestDB(t)
	runner := NewRunner(db, files(map[string]string{"001_init.sql": "CREATE TABLE a (id INTEGER);"}), SQLite)
	if _, err := runner.Apply(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 9"); err != nil {
		t.Fatal(err)
	}

	err := runner.Validate()
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("Validate() error = %v", err)
	}
	if _, err := runner.Apply(); err == nil {
		t.Error("Apply should refuse a newer database")
	}
}

func TestMigrationsFilenameRules(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"missing underscore", map[string]string{"001.sql": ""}},
		{"non-numeric version", map[string]string{"abc_init.sql": ""}},
		{"zero version", map[string]string{"000_init.sql": ""}},
		{"duplicate version", map[string]string{"001_a.sql": "", "1_b.sql": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRunner(nil, files(tt.files), SQLite).Migrations(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLatestVersionAndOrdering(t *testing.T) {
	runner := NewRunner(nil, files(map[string]string{
		"010_late.sql":  "",
		"002_early.sql": "",
	}), Postgres)

	migrations, err := runner.Migrations()
	if err != nil {
		t.Fatal(err)
	}
	if migrations[0].Name != "early" || migrations[1].Version != 10 {
		t.Errorf("unexpected order %+v", migrations)
	}
	if v, _ := runner.LatestVersion(); v != 10 {
		t.Errorf("LatestVersion() = %d, want 10", v)
	}
	if runner.insertVersionSQL() != "INSERT INTO schema_version (version) VALUES ($1)" {
		t.Errorf("postgres runner uses wrong placeholder: %s", runner.insertVersionSQL())
	}
}
