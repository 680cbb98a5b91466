package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

type memScheduleRepo struct {
	mu      sync.Mutex
	doc     domain.Schedule
	saves   int
	saveErr error
}

func newMemScheduleRepo(entries ...domain.ScheduleEntry) *memScheduleRepo {
	return &memScheduleRepo{doc: domain.Schedule{Entries: entries}}
}

func (r *memScheduleRepo) Load(ctx context.Context) (domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.doc
	out.Entries = append([]domain.ScheduleEntry(nil), r.doc.Entries...)
	return out, nil
}

func (r *memScheduleRepo) Save(ctx context.Context, doc domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.doc = doc
	r.doc.Entries = append([]domain.ScheduleEntry(nil), doc.Entries...)
	return nil
}

// fakeRemote simule la base distante; failOn force une erreur pour une date.
type fakeRemote struct {
	mu       sync.Mutex
	pages    []domain.ScheduleEntry
	nextID   int
	failOn   map[string]bool
	queryErr error

	createCalls []string
	updateCalls []string
	patches     map[string]domain.EntryPatch
}

func newFakeRemote(entries ...domain.ScheduleEntry) *fakeRemote {
	f := &fakeRemote{failOn: map[string]bool{}, patches: map[string]domain.EntryPatch{}}
	for _, e := range entries {
		if e.RemoteID == "" {
			f.nextID++
			e.RemoteID = fmt.Sprintf("page-%d", f.nextID)
		}
		f.pages = append(f.pages, e)
	}
	return f
}

func (f *fakeRemote) Query(ctx context.Context, sortKey string, dir domain.SortDirection) ([]domain.ScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := append([]domain.ScheduleEntry(nil), f.pages...)
	domain.SortByDateDesc(out)
	return out, nil
}

func (f *fakeRemote) Create(ctx context.Context, e domain.ScheduleEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, e.Date)
	if f.failOn[e.Date] {
		return "", errors.New("remote unavailable")
	}
	f.nextID++
	e.RemoteID = fmt.Sprintf("page-%d", f.nextID)
	f.pages = append(f.pages, e)
	return e.RemoteID, nil
}

func (f *fakeRemote) Update(ctx context.Context, id string, p domain.EntryPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, id)
	for i, e := range f.pages {
		if e.RemoteID != id {
			continue
		}
		if f.failOn[e.Date] {
			return errors.New("remote unavailable")
		}
		f.patches[id] = p
		if p.Date != nil {
			e.Date = *p.Date
		}
		if p.BookName != nil {
			e.BookName = *p.BookName
		}
		if p.LeaderName != nil {
			e.LeaderName = *p.LeaderName
		}
		if p.HostName != nil {
			e.HostName = *p.HostName
		}
		f.pages[i] = e
		return nil
	}
	return ports.ErrNotFound
}

type memLeaderRepo struct {
	mu      sync.Mutex
	leaders []domain.Leader
}

func (r *memLeaderRepo) List(ctx context.Context) ([]domain.Leader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Leader(nil), r.leaders...), nil
}

func (r *memLeaderRepo) Save(ctx context.Context, leaders []domain.Leader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaders = append([]domain.Leader(nil), leaders...)
	return nil
}

type memSettingsRepo struct {
	mu sync.Mutex
	s  *domain.Settings
}

func (r *memSettingsRepo) Get(ctx context.Context) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.s == nil {
		return domain.DefaultSettings(), nil
	}
	return *r.s, nil
}

func (r *memSettingsRepo) Put(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = &s
	return s, nil
}

type memRunsRepo struct {
	mu   sync.Mutex
	runs []domain.SyncRun
}

func (r *memRunsRepo) Create(ctx context.Context, run domain.SyncRun) (domain.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.runs {
		if x.ID == run.ID {
			return domain.SyncRun{}, ports.ErrConflict
		}
	}
	r.runs = append(r.runs, run)
	return run, nil
}

func (r *memRunsRepo) Get(ctx context.Context, id string) (domain.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.runs {
		if x.ID == id {
			return x, nil
		}
	}
	return domain.SyncRun{}, ports.ErrNotFound
}

func (r *memRunsRepo) List(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]domain.SyncRun(nil), r.runs...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memBus struct {
	mu     sync.Mutex
	events []ports.Event
	subs   []chan ports.Event
}

func (b *memBus) Publish(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	evt := ports.Event{Topic: topic, Payload: payload}
	b.events = append(b.events, evt)
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (b *memBus) Subscribe() (<-chan ports.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan ports.Event, 16)
	b.subs = append(b.subs, ch)
	return ch, func() {}
}

func (b *memBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Topic)
	}
	return out
}

func entry(date, book, leader string) domain.ScheduleEntry {
	return domain.ScheduleEntry{Date: date, BookName: book, LeaderName: leader}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
