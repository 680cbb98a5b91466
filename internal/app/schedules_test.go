package app

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

func newTestScheduleService(repo *memScheduleRepo, bus *memBus) *ScheduleService {
	var b ports.EventBus
	if bus != nil {
		b = bus
	}
	s := NewScheduleService(repo, b)
	s.now = fixedClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	return s
}

func TestScheduleServiceCreate(t *testing.T) {
	repo := newMemScheduleRepo(entry("2024-01-01", "A", ""))
	bus := &memBus{}
	svc := newTestScheduleService(repo, bus)
	ctx := context.Background()

	got, err := svc.Create(ctx, domain.ScheduleEntry{Date: " 2024-02-01 ", BookName: "第12期 《B》", LeaderName: "X"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Date != "2024-02-01" || got.Period == nil || *got.Period != 12 {
		t.Fatalf("unexpected entry: %+v", got)
	}

	doc, _ := repo.Load(ctx)
	if doc.Entries[0].Date != "2024-02-01" {
		t.Fatalf("entries must be sorted newest first: %+v", doc.Entries)
	}
	if !doc.LastUpdated.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("lastUpdated not set: %v", doc.LastUpdated)
	}
	if !reflect.DeepEqual(bus.topics(), []string{"schedule.created"}) {
		t.Fatalf("unexpected events: %v", bus.topics())
	}
}

func TestScheduleServiceCreateErrors(t *testing.T) {
	svc := newTestScheduleService(newMemScheduleRepo(entry("2024-01-01", "第3期 A", "")), &memBus{})
	ctx := context.Background()

	cases := []struct {
		name string
		in   domain.ScheduleEntry
		code string
		err  error
	}{
		{"bad date", domain.ScheduleEntry{Date: "2024/01/02", BookName: "B"}, "invalid_date", ErrInvalid},
		{"no book", domain.ScheduleEntry{Date: "2024-01-02"}, "missing_book", ErrInvalid},
		{"date taken", domain.ScheduleEntry{Date: "2024-01-01", BookName: "B"}, "date_taken", ErrConflict},
		{"period taken", domain.ScheduleEntry{Date: "2024-01-09", BookName: "第3期 C"}, "period_taken", ErrConflict},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.in)
		if !errors.Is(err, tc.err) || ErrorCode(err) != tc.code {
			t.Fatalf("%s: expected %s/%v, got %v", tc.name, tc.code, tc.err, err)
		}
	}
}

func TestScheduleServiceReplaceAndDelete(t *testing.T) {
	repo := newMemScheduleRepo(entry("2024-01-01", "A", ""), entry("2024-01-08", "B", ""))
	bus := &memBus{}
	svc := newTestScheduleService(repo, bus)
	ctx := context.Background()

	if _, err := svc.Replace(ctx, "2024-01-01", domain.ScheduleEntry{Date: "2024-01-08", BookName: "A"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on date move, got %v", err)
	}
	if _, err := svc.Replace(ctx, "2030-01-01", domain.ScheduleEntry{BookName: "A"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, err := svc.Replace(ctx, "2024-01-01", domain.ScheduleEntry{BookName: "A2", LeaderName: "Y"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got.Date != "2024-01-01" || got.LeaderName != "Y" {
		t.Fatalf("unexpected replaced entry: %+v", got)
	}

	if err := svc.Delete(ctx, "2024-01-08"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "2024-01-08"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 1 || list[0].BookName != "A2" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if !reflect.DeepEqual(bus.topics(), []string{"schedule.updated", "schedule.deleted"}) {
		t.Fatalf("unexpected events: %v", bus.topics())
	}
}

func TestScheduleServiceLatest(t *testing.T) {
	svc := newTestScheduleService(newMemScheduleRepo(
		entry("2024-01-08", "B", ""),
		entry("2024-03-01", "C", ""),
		entry("2024-01-01", "A", ""),
	), nil)
	got, err := svc.Latest(context.Background())
	if err != nil || got.BookName != "C" {
		t.Fatalf("expected C, got %+v (%v)", got, err)
	}

	empty := newTestScheduleService(newMemScheduleRepo(), nil)
	if _, err := empty.Latest(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
