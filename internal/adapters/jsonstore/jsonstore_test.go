package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

func TestScheduleRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "book-schedule.json")
	repo := NewScheduleRepository(zerolog.Nop(), path)
	ctx := context.Background()

	doc, err := repo.Load(ctx)
	if err != nil || doc.Entries == nil || len(doc.Entries) != 0 {
		t.Fatalf("expected empty store for missing file, got %+v (%v)", doc, err)
	}

	p := 7
	doc = domain.Schedule{
		LastUpdated: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Entries: []domain.ScheduleEntry{
			{Date: "2024-01-01", BookName: "《活着》 & co", LeaderName: "X", Period: &p, RemoteID: "secret"},
		},
	}
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(b)
	if !strings.Contains(text, "\n  \"schedule\": [\n    {\n      \"date\": \"2024-01-01\"") {
		t.Fatalf("expected 2-space indentation:\n%s", text)
	}
	if strings.Contains(text, "secret") || strings.Contains(text, `\u0026`) {
		t.Fatalf("unexpected content:\n%s", text)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].RemoteID != "" || *got.Entries[0].Period != 7 {
		t.Fatalf("unexpected entries: %+v", got.Entries)
	}
	if !got.LastUpdated.Equal(doc.LastUpdated) {
		t.Fatalf("lastUpdated mismatch: %v", got.LastUpdated)
	}
}

func TestScheduleRepositoryMalformedFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-schedule.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := NewScheduleRepository(zerolog.Nop(), path).Load(context.Background())
	if err != nil || len(doc.Entries) != 0 {
		t.Fatalf("expected empty store, got %+v (%v)", doc, err)
	}
}

func TestScheduleRepositoryWriteErrorIsReturned(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	repo := NewScheduleRepository(zerolog.Nop(), filepath.Join(blocker, "book-schedule.json"))
	if err := repo.Save(context.Background(), domain.Schedule{}); err == nil {
		t.Fatalf("expected save error")
	}
}

func TestRawEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-schedule.json")
	raw := `{"lastUpdated":"2024-01-01T00:00:00Z","schedule":[{"date":"2024-01-01","bookName":"A","period":null,"extra":true}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := NewScheduleRepository(zerolog.Nop(), path).RawEntries(context.Background())
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if len(entries) != 1 || entries[0]["extra"] != true {
		t.Fatalf("unexpected raw entries: %+v", entries)
	}
	if v, ok := entries[0]["period"]; !ok || v != nil {
		t.Fatalf("null field must be kept: %+v", entries[0])
	}
}

func TestNormalizeLeadersShapes(t *testing.T) {
	cases := map[string]string{
		"canonical": `{"leaders":{"Bob":{"name":"Bob","title":"T","intro":"I","isHost":true},"Ann":{"title":"x"}}}`,
		"array":     `{"leaders":[{"name":"Bob","title":"T","intro":"I","isHost":true},{"name":"Ann","title":"x"}]}`,
		"bare list": `[{"name":"Ann","title":"x"},{"name":"Bob","title":"T","intro":"I","isHost":true}]`,
		"bare map":  "\ufeff" + `{"Ann":{"title":"x"},"Bob":{"title":"T","intro":"I","isHost":true}}`,
	}
	for name, raw := range cases {
		got, err := NormalizeLeaders([]byte(raw))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(got) != 2 || got[0].Name != "Ann" || got[1].Name != "Bob" || !got[1].IsHost || got[1].Intro != "I" {
			t.Fatalf("%s: unexpected leaders %+v", name, got)
		}
	}
	if _, err := NormalizeLeaders([]byte(`"nope"`)); err == nil {
		t.Fatalf("expected error for scalar")
	}
}

func TestLeaderRepositorySaveCanonical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaders.json")
	repo := NewLeaderRepository(zerolog.Nop(), path)
	ctx := context.Background()

	if err := repo.Save(ctx, []domain.Leader{{Name: "Ann", IsHost: true}, {Name: ""}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), `"leaders": {`) || !strings.Contains(string(b), `"Ann": {`) {
		t.Fatalf("unexpected file:\n%s", b)
	}
	got, err := repo.List(ctx)
	if err != nil || len(got) != 1 || !got[0].IsHost {
		t.Fatalf("unexpected list %+v (%v)", got, err)
	}
}

type recordingBus struct {
	mu     sync.Mutex
	events []ports.Event
}

func (b *recordingBus) Publish(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ports.Event{Topic: topic, Payload: payload})
}

func (b *recordingBus) Subscribe() (<-chan ports.Event, func()) {
	return make(chan ports.Event), func() {}
}

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func TestWatcherPublishesOnSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book-schedule.json")
	bus := &recordingBus{}
	w := NewWatcher(zerolog.Nop(), bus, map[string]string{"schedule": path})
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	repo := NewScheduleRepository(zerolog.Nop(), path)
	deadline := time.Now().Add(3 * time.Second)
	for bus.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no change event published")
		}
		// Le watcher peut ne pas encore être armé: réécrire jusqu'à réception.
		if err := repo.Save(context.Background(), domain.Schedule{}); err != nil {
			t.Fatalf("save: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	bus.mu.Lock()
	evt := bus.events[0]
	bus.mu.Unlock()
	if evt.Topic != TopicLocalStoreChanged || !strings.Contains(string(evt.Payload), `"file":"schedule"`) {
		t.Fatalf("unexpected event: %s %s", evt.Topic, evt.Payload)
	}

	// Un fichier voisin non surveillé ne déclenche rien.
	time.Sleep(100 * time.Millisecond)
	before := bus.count()
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if bus.count() != before {
		t.Fatalf("unwatched file produced an event")
	}
}
