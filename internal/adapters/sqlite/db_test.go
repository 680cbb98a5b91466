package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestOpenFileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bookclub.db")

	for i := 0; i < 2; i++ {
		db, err := Open(ctx, path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		var n int
		if err := db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 applied migration, got %d", n)
		}
		_ = db.Close()
	}
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE a(x);\n-- +migrate Down\nDROP TABLE a;\n")
	if got != "CREATE TABLE a(x);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
}

func TestLoadMigrationsSortedByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.sql": {Data: []byte("-- +migrate Up\nSELECT 2;\n")},
		"migrations/0001_a.sql": {Data: []byte("-- +migrate Up\nSELECT 1;\n")},
	}
	got, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].version != 1 || got[1].name != "0002_b.sql" {
		t.Fatalf("unexpected order: %+v", got)
	}

	bad := fstest.MapFS{"migrations/init.sql": {Data: []byte("")}}
	if _, err := loadMigrations(bad); err == nil {
		t.Fatalf("want error for unnumbered migration")
	}
}
