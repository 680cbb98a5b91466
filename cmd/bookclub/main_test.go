package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/jsonstore"
	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

type testWorkspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T) testWorkspace {
	t.Helper()
	t.Setenv("NOTION_API_KEY", "")
	t.Setenv("NOTION_BOOKLIST_DATABASE_ID", "")
	t.Setenv("BOOKCLUB_DB_PATH", "")

	dir := t.TempDir()
	cfg := strings.Join([]string{
		"db_path: " + filepath.Join(dir, "bookclub.db"),
		"paths:",
		"  schedule: " + filepath.Join(dir, "schedule.json"),
		"  leaders: " + filepath.Join(dir, "leaders.json"),
		"  output_dir: " + filepath.Join(dir, "out"),
		"",
	}, "\n")
	path := filepath.Join(dir, "bookclub.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return testWorkspace{dir: dir, config: path}
}

func (w testWorkspace) run(t *testing.T, args ...string) error {
	t.Helper()
	s := &session{opts: &globalOptions{}}
	defer s.close()
	root := newRootCmd(s)
	root.SetArgs(append([]string{"--config", w.config}, args...))
	return root.ExecuteContext(context.Background())
}

func (w testWorkspace) entries(t *testing.T) []domain.ScheduleEntry {
	t.Helper()
	doc, err := jsonstore.NewScheduleRepository(zerolog.Nop(), filepath.Join(w.dir, "schedule.json")).Load(context.Background())
	if err != nil {
		t.Fatalf("load schedule: %v", err)
	}
	return doc.Entries
}

func TestAddEditDeleteWithoutTerminal(t *testing.T) {
	w := newWorkspace(t)

	if err := w.run(t, "add", "--date", "2024-03-01", "--book", "第5期 《活着》", "--leader", "Alice"); err != nil {
		t.Fatalf("add: %v", err)
	}
	got := w.entries(t)
	if len(got) != 1 || got[0].LeaderName != "Alice" || got[0].Period == nil || *got[0].Period != 5 {
		t.Fatalf("unexpected entries after add: %+v", got)
	}

	if err := w.run(t, "edit", "2024-03-01", "--host", "Bob"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got = w.entries(t); got[0].HostName != "Bob" || got[0].LeaderName != "Alice" {
		t.Fatalf("edit lost fields: %+v", got[0])
	}

	// Sans terminal ni --yes, la suppression est refusée.
	if err := w.run(t, "delete", "2024-03-01"); err == nil {
		t.Fatalf("delete without confirmation must fail")
	}
	if err := w.run(t, "--yes", "delete", "2024-03-01"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got = w.entries(t); len(got) != 0 {
		t.Fatalf("entry not deleted: %+v", got)
	}
}

func TestAddRejectsMissingBookWithoutTerminal(t *testing.T) {
	w := newWorkspace(t)
	if err := w.run(t, "add", "--date", "2024-03-01"); err == nil {
		t.Fatalf("want error for missing book name")
	}
	if got := w.entries(t); len(got) != 0 {
		t.Fatalf("nothing must be written: %+v", got)
	}
}

func TestRemoteCommandsFailInLocalMode(t *testing.T) {
	w := newWorkspace(t)
	for _, cmd := range []string{"diff", "push", "pull", "fetch", "booklist", "latest"} {
		if err := w.run(t, cmd); !errors.Is(err, app.ErrRemoteNotConfigured) {
			t.Fatalf("%s: want ErrRemoteNotConfigured, got %v", cmd, err)
		}
	}
}

func TestInviteWritesFile(t *testing.T) {
	w := newWorkspace(t)
	leaders := jsonstore.NewLeaderRepository(zerolog.Nop(), filepath.Join(w.dir, "leaders.json"))
	if err := leaders.Save(context.Background(), []domain.Leader{{Name: "Alice", Intro: "Amoureuse des classiques"}}); err != nil {
		t.Fatalf("leaders: %v", err)
	}
	if err := w.run(t, "add", "--date", "2024-03-01", "--book", "第5期 《活着》", "--leader", "Alice"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := w.run(t, "invite", "--intro", "Un roman de Yu Hua", "--room", "302"); err != nil {
		t.Fatalf("invite: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(w.dir, "out", "邀请函-5-2024-03-01.txt"))
	if err != nil {
		t.Fatalf("invitation file: %v", err)
	}
	if text := string(b); !strings.Contains(text, "302") || !strings.Contains(text, "Un roman de Yu Hua") {
		t.Fatalf("unexpected invitation:\n%s", text)
	}
}

func TestReportErr(t *testing.T) {
	if err := reportErr(domain.SyncReport{TotalCreated: 2}, nil); err != nil {
		t.Fatalf("clean report: %v", err)
	}
	if err := reportErr(domain.SyncReport{TotalErrors: 1}, nil); err == nil {
		t.Fatalf("item errors must fail the command")
	}
	boom := errors.New("boom")
	if err := reportErr(domain.SyncReport{}, boom); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}

func TestNormalizeName(t *testing.T) {
	if got := normalizeName(domain.Unspecified); got != "" {
		t.Fatalf("未指定 must become empty, got %q", got)
	}
	if got := normalizeName(" Alice "); got != "Alice" {
		t.Fatalf("got %q", got)
	}
}

// newNotionWorkspace pointe le client Notion vers un serveur de test.
func newNotionWorkspace(t *testing.T, h http.Handler) testWorkspace {
	t.Helper()
	w := newWorkspace(t)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("NOTION_API_KEY", "secret")
	t.Setenv("NOTION_BOOKLIST_DATABASE_ID", "db1")

	f, err := os.OpenFile(w.config, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString("notion:\n  base_url: " + srv.URL + "\n"); err != nil {
		t.Fatalf("append config: %v", err)
	}
	return w
}

func TestBooklistQueriesNotion(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	w := newNotionWorkspace(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/databases/db1/query" {
			http.NotFound(rw, r)
			return
		}
		mu.Lock()
		calls++
		mu.Unlock()
		_ = json.NewEncoder(rw).Encode(map[string]any{"results": []any{map[string]any{
			"id": "p1",
			"properties": map[string]any{
				"书名": map[string]any{"type": "title", "title": []map[string]any{{"plain_text": "第1期 原则"}}},
				"排期": map[string]any{"type": "date", "date": map[string]any{"start": "2025-01-05"}},
				"作者": map[string]any{"type": "rich_text", "rich_text": []map[string]any{{"plain_text": "达利欧"}}},
			},
		}}})
	}))

	if err := w.run(t, "booklist", "--author", "达利", "--period", "1"); err != nil {
		t.Fatalf("booklist: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected one query, got %d", calls)
	}
}

func TestLatestInspectsRecordAndBlocks(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	w := newNotionWorkspace(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/v1/databases/db1/query":
			_, _ = rw.Write([]byte(`{"results":[{"id":"p9","created_time":"2025-01-02T03:04:05Z","properties":{}}]}`))
		case "/v1/blocks/p9/children":
			_, _ = rw.Write([]byte(`{"results":[{"id":"b1","type":"divider","divider":{}}]}`))
		default:
			http.NotFound(rw, r)
		}
	}))

	if err := w.run(t, "latest"); err != nil {
		t.Fatalf("latest: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "POST /v1/databases/db1/query" || seen[1] != "GET /v1/blocks/p9/children" {
		t.Fatalf("unexpected calls: %v", seen)
	}
}

func TestDoctor(t *testing.T) {
	ok := newNotionWorkspace(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`{"title":[{"plain_text":"书单"}],"properties":{"书名":{"type":"title"},"排期":{"type":"date"}}}`))
	}))
	if err := ok.run(t, "doctor"); err != nil {
		t.Fatalf("doctor with reachable notion: %v", err)
	}

	denied := newNotionWorkspace(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusUnauthorized)
		_, _ = rw.Write([]byte(`{"status":401,"code":"unauthorized","message":"API token is invalid."}`))
	}))
	if err := denied.run(t, "doctor"); !errors.Is(err, errDiagnosisFailed) {
		t.Fatalf("doctor with rejected token: want errDiagnosisFailed, got %v", err)
	}
}

func TestDoctorFailsInLocalMode(t *testing.T) {
	w := newWorkspace(t)
	if err := w.run(t, "doctor"); !errors.Is(err, errDiagnosisFailed) {
		t.Fatalf("want errDiagnosisFailed, got %v", err)
	}
}

func TestPushNoticeWarnsAboutLocalOverwrite(t *testing.T) {
	if got := pushNotice("新增 1 项, 更新 0 项", false); got != "新增 1 项, 更新 0 项" {
		t.Fatalf("without refresh the notice must be unchanged: %q", got)
	}
	if got := pushNotice("新增 1 项, 更新 0 项", true); !strings.Contains(got, "覆盖本地排期文件") {
		t.Fatalf("refresh must warn about the local overwrite: %q", got)
	}
}

func TestHelpTextIsChinese(t *testing.T) {
	hasHan := func(s string) bool {
		for _, r := range s {
			if unicode.Is(unicode.Han, r) {
				return true
			}
		}
		return false
	}
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		if !hasHan(c.Short) {
			t.Fatalf("%s: short help not in Chinese: %q", c.CommandPath(), c.Short)
		}
		if usage := c.LocalFlags().FlagUsages(); strings.ContainsAny(usage, "éèàêçùôÉ") {
			t.Fatalf("%s: flag help not in Chinese:\n%s", c.CommandPath(), usage)
		}
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(newRootCmd(&session{opts: &globalOptions{}}))
}
