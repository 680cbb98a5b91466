package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/jsonstore"
	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

type fakeRemote struct {
	mu      sync.Mutex
	entries []domain.ScheduleEntry
	next    int
	delay   time.Duration
}

func (f *fakeRemote) Query(ctx context.Context, sortKey string, direction domain.SortDirection) ([]domain.ScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.ScheduleEntry(nil), f.entries...)
	domain.SortByDateDesc(out)
	return out, nil
}

func (f *fakeRemote) Create(ctx context.Context, e domain.ScheduleEntry) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	e.RemoteID = fmt.Sprintf("page-%d", f.next)
	f.entries = append(f.entries, e)
	return e.RemoteID, nil
}

func (f *fakeRemote) Update(ctx context.Context, id string, p domain.EntryPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].RemoteID != id {
			continue
		}
		if p.LeaderName != nil {
			f.entries[i].LeaderName = *p.LeaderName
		}
		if p.HostName != nil {
			f.entries[i].HostName = *p.HostName
		}
		if p.BookName != nil {
			f.entries[i].BookName = *p.BookName
		}
		return nil
	}
	return fmt.Errorf("page %s not found", id)
}

func (f *fakeRemote) get(date string) (domain.ScheduleEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.Date == date {
			return e, true
		}
	}
	return domain.ScheduleEntry{}, false
}

type testEnv struct {
	srv       *httptest.Server
	bus       *memorybus.Bus
	schedules *jsonstore.ScheduleRepository
	leaders   *jsonstore.LeaderRepository
}

type envOptions struct {
	remote         *fakeRemote
	pages          PageStore
	requestTimeout time.Duration
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()
	dir := t.TempDir()

	db, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	bus := memorybus.New()
	schedRepo := jsonstore.NewScheduleRepository(logger, filepath.Join(dir, "book-schedule.json"))
	leaderRepo := jsonstore.NewLeaderRepository(logger, filepath.Join(dir, "leaders.json"))

	var remote ports.RemoteSchedule
	if opts.remote != nil {
		remote = opts.remote
	}
	settings := app.NewSettingsService(sqlite.NewSettingsRepository(db.SQL))
	runs := app.NewRunRecorder(logger, bus, sqlite.NewSyncRunsRepository(db.SQL))
	tpl, err := app.LoadInvitationTemplate("")
	if err != nil {
		t.Fatalf("template: %v", err)
	}

	deps := Deps{
		Schedules:   app.NewScheduleService(schedRepo, bus),
		Leaders:     app.NewLeaderService(leaderRepo, bus),
		Sync:        app.NewSynchronizer(logger, schedRepo, remote, bus).WithRecorder(runs),
		Invitations: app.NewInvitationService(tpl, leaderRepo, schedRepo, settings),
		Fields:      app.NewFieldInspector(schedRepo, nil),
		Settings:    settings,
		Runs:        runs,
		Pages:       opts.pages,
		Bus:         bus,
	}
	deps.RequestTimeout = opts.requestTimeout
	srv := httptest.NewServer(NewServer(logger, deps).Router())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, bus: bus, schedules: schedRepo, leaders: leaderRepo}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out
}

func (e *testEnv) seed(t *testing.T, entries ...domain.ScheduleEntry) {
	t.Helper()
	if err := e.schedules.Save(context.Background(), domain.Schedule{Entries: entries}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}

func TestHealthReportsRemoteMode(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	status, body := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if status != http.StatusOK {
		t.Fatalf("status: want %d, got %d", http.StatusOK, status)
	}
	got := decode[map[string]any](t, body)
	if got["status"] != "ok" || got["remote"] != false {
		t.Fatalf("unexpected health: %s", body)
	}
}

func TestVersionAndOpenAPI(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	if status, _ := env.do(t, http.MethodGet, "/api/v1/version", nil); status != http.StatusOK {
		t.Fatalf("version status: %d", status)
	}
	status, body := env.do(t, http.MethodGet, "/api/v1/openapi.json", nil)
	if status != http.StatusOK {
		t.Fatalf("openapi status: %d", status)
	}
	doc := decode[map[string]any](t, body)
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/api/v1/schedules/sync"]; !ok {
		t.Fatalf("sync path missing from openapi document")
	}
}

func TestRemoteRoutesAnswer503InLocalMode(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/schedules/diff"},
		{http.MethodPost, "/api/v1/schedules/sync"},
		{http.MethodPost, "/api/v1/schedules/pull?confirm=true"},
		{http.MethodGet, "/api/v1/notion/ws"},
	}
	for _, tc := range cases {
		status, body := env.do(t, tc.method, tc.path, nil)
		if status != http.StatusServiceUnavailable {
			t.Fatalf("%s %s: want 503, got %d (%s)", tc.method, tc.path, status, body)
		}
		if got := decode[map[string]string](t, body); got["code"] != "remote_not_configured" {
			t.Fatalf("%s %s: unexpected body %s", tc.method, tc.path, body)
		}
	}
}
