package sqlite

import (
	"context"
	"testing"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

func TestSettingsRepository_DefaultsAndPersist(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSettingsRepository(db.SQL)

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get(default): %v", err)
	}
	if got.RoomNumber != "106" || !got.RefreshAfterPush {
		t.Fatalf("expected defaults, got %+v", got)
	}

	want := domain.Settings{RoomNumber: "201", WechatLink: "https://example.test/j", RefreshAfterPush: false}
	updated, err := repo.Put(ctx, want)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if updated != want {
		t.Fatalf("Put: want %+v, got %+v", want, updated)
	}

	got2, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get(after Put): %v", err)
	}
	if got2 != want {
		t.Fatalf("after Put: want %+v, got %+v", want, got2)
	}
}

func TestSettingsRepository_PartialJSONKeepsDefaults(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.SQL.ExecContext(ctx, `INSERT INTO settings(key, value_json, updated_at) VALUES('default', '{"wechatLink":"x"}', '')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := NewSettingsRepository(db.SQL).Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.WechatLink != "x" || got.RoomNumber != "106" || !got.RefreshAfterPush {
		t.Fatalf("unexpected settings: %+v", got)
	}
}
