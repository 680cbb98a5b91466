package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NOTION_API_KEY", "NOTION_BOOKLIST_DATABASE_ID", "BOOKCLUB_ADDR", "BOOKCLUB_DB_PATH",
		"BOOKCLUB_DATA_DIR", "BOOKCLUB_LOG_LEVEL", "BOOKCLUB_API_URLS",
	} {
		t.Setenv(k, "")
		// godotenv ne touche pas une variable définie, même vide.
		os.Unsetenv(k)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8080" || cfg.Paths.Schedule != filepath.Join("config", "book-schedule.json") {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RemoteEnabled() {
		t.Fatalf("remote must be disabled without credentials")
	}
	if err := cfg.RequireRemote(); !errors.Is(err, ErrRemoteRequired) {
		t.Fatalf("expected ErrRemoteRequired, got %v", err)
	}
}

func TestLoadYAMLEnvAndDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yml := `
addr: 0.0.0.0:9000
paths:
  schedule: data/schedule.json
notion:
  database_id: from-yaml
  timeout: 5s
  properties:
    leader: Leader
    status: 状态
log:
  level: DEBUG
api:
  candidates: ["http://a:1/", " http://b:2 "]
`
	cfgPath := filepath.Join(dir, "bookclub.yaml")
	if err := os.WriteFile(cfgPath, []byte(yml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("NOTION_API_KEY=from-dotenv\nNOTION_BOOKLIST_DATABASE_ID=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	// L'environnement prime sur .env.
	t.Setenv("NOTION_BOOKLIST_DATABASE_ID", "from-env")

	cfg, err := Load(cfgPath, envPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "0.0.0.0:9000" || cfg.Paths.Schedule != "data/schedule.json" {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.Paths.Leaders == "" || cfg.Paths.OutputDir != "invitations" {
		t.Fatalf("missing keys must keep defaults: %+v", cfg.Paths)
	}
	if cfg.Notion.APIKey != "from-dotenv" || cfg.Notion.DatabaseID != "from-env" {
		t.Fatalf("unexpected notion credentials: %+v", cfg.Notion)
	}
	if cfg.Notion.Timeout != 5*time.Second || cfg.Notion.Properties.Leader != "Leader" || cfg.Notion.Properties.Title != "书名" {
		t.Fatalf("unexpected notion settings: %+v", cfg.Notion)
	}
	if cfg.Notion.Properties.Status != "状态" || cfg.Notion.Properties.Author != "作者" {
		t.Fatalf("unexpected booklist properties: %+v", cfg.Notion.Properties)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level not normalized: %q", cfg.Log.Level)
	}
	if !reflect.DeepEqual(cfg.API.Candidates, []string{"http://a:1", "http://b:2"}) {
		t.Fatalf("unexpected candidates: %v", cfg.API.Candidates)
	}
	if !cfg.RemoteEnabled() {
		t.Fatalf("remote must be enabled")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKCLUB_DATA_DIR", "/srv/club")
	t.Setenv("BOOKCLUB_API_URLS", "http://x:1, http://y:2")
	t.Setenv("BOOKCLUB_DB_PATH", "/srv/club/runs.db")

	cfg, err := Load("", filepath.Join(t.TempDir(), "none.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Leaders != filepath.Join("/srv/club", "leaders.json") || cfg.DBPath != "/srv/club/runs.db" {
		t.Fatalf("unexpected paths: %+v / %s", cfg.Paths, cfg.DBPath)
	}
	if !reflect.DeepEqual(cfg.API.Candidates, []string{"http://x:1", "http://y:2"}) {
		t.Fatalf("unexpected candidates: %v", cfg.API.Candidates)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("addr: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path, filepath.Join(t.TempDir(), "none.env")); err == nil {
		t.Fatalf("expected parse error")
	}
}
