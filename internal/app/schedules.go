package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

// ScheduleService expose le CRUD du store local, indexé par date.
type ScheduleService struct {
	repo ports.ScheduleRepository
	bus  ports.EventBus
	now  func() time.Time
}

func NewScheduleService(repo ports.ScheduleRepository, bus ports.EventBus) *ScheduleService {
	return &ScheduleService{repo: repo, bus: bus, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ScheduleService) Document(ctx context.Context) (domain.Schedule, error) {
	return s.repo.Load(ctx)
}

func (s *ScheduleService) List(ctx context.Context) ([]domain.ScheduleEntry, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

func (s *ScheduleService) Get(ctx context.Context, date string) (domain.ScheduleEntry, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	if i := indexOfDate(doc.Entries, date); i >= 0 {
		return doc.Entries[i], nil
	}
	return domain.ScheduleEntry{}, ErrNotFound
}

// Latest renvoie la séance la plus récente par date (pas la dernière du tableau).
func (s *ScheduleService) Latest(ctx context.Context) (domain.ScheduleEntry, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	e, ok := domain.Latest(doc.Entries)
	if !ok {
		return domain.ScheduleEntry{}, ErrNotFound
	}
	return e, nil
}

func (s *ScheduleService) Create(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	e = normalizeEntry(e)
	if err := checkEntry(e); err != nil {
		return domain.ScheduleEntry{}, err
	}
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	if indexOfDate(doc.Entries, e.Date) >= 0 {
		return domain.ScheduleEntry{}, &CodedError{Code: "date_taken", Message: "a session already exists on " + e.Date, Err: ErrConflict}
	}
	if e.Period != nil {
		for _, other := range doc.Entries {
			if p, ok := other.EffectivePeriod(); ok && p == *e.Period {
				return domain.ScheduleEntry{}, &CodedError{Code: "period_taken", Message: "period already scheduled", Err: ErrConflict}
			}
		}
	}

	doc.Entries = append(doc.Entries, e)
	if err := s.save(ctx, doc); err != nil {
		return domain.ScheduleEntry{}, err
	}
	s.publish("schedule.created", e)
	return e, nil
}

// Replace remplace l'entrée de la date donnée (jamais de patch partiel).
func (s *ScheduleService) Replace(ctx context.Context, date string, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	e = normalizeEntry(e)
	if e.Date == "" {
		e.Date = date
	}
	if err := checkEntry(e); err != nil {
		return domain.ScheduleEntry{}, err
	}
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	i := indexOfDate(doc.Entries, date)
	if i < 0 {
		return domain.ScheduleEntry{}, ErrNotFound
	}
	if e.Date != date && indexOfDate(doc.Entries, e.Date) >= 0 {
		return domain.ScheduleEntry{}, &CodedError{Code: "date_taken", Message: "a session already exists on " + e.Date, Err: ErrConflict}
	}
	doc.Entries[i] = e
	if err := s.save(ctx, doc); err != nil {
		return domain.ScheduleEntry{}, err
	}
	s.publish("schedule.updated", e)
	return e, nil
}

func (s *ScheduleService) Delete(ctx context.Context, date string) error {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	i := indexOfDate(doc.Entries, date)
	if i < 0 {
		return ErrNotFound
	}
	removed := doc.Entries[i]
	doc.Entries = append(doc.Entries[:i], doc.Entries[i+1:]...)
	if err := s.save(ctx, doc); err != nil {
		return err
	}
	s.publish("schedule.deleted", removed)
	return nil
}

func (s *ScheduleService) save(ctx context.Context, doc domain.Schedule) error {
	domain.SortByDateDesc(doc.Entries)
	doc.LastUpdated = s.now()
	return s.repo.Save(ctx, doc)
}

func (s *ScheduleService) publish(topic string, e domain.ScheduleEntry) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}

func normalizeEntry(e domain.ScheduleEntry) domain.ScheduleEntry {
	e.Date = strings.TrimSpace(e.Date)
	e.BookName = strings.TrimSpace(e.BookName)
	e.LeaderName = strings.TrimSpace(e.LeaderName)
	e.HostName = strings.TrimSpace(e.HostName)
	e.RemoteID = ""
	if e.Period == nil {
		if p, ok := domain.PeriodFromTitle(e.BookName); ok {
			e.Period = &p
		}
	}
	return e
}

func checkEntry(e domain.ScheduleEntry) error {
	err := e.Check()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrMissingBookName):
		return &CodedError{Code: "missing_book", Message: "book name is required", Err: ErrInvalid}
	default:
		return &CodedError{Code: "invalid_date", Message: err.Error() + " (expected YYYY-MM-DD)", Err: ErrInvalid}
	}
}

func indexOfDate(entries []domain.ScheduleEntry, date string) int {
	for i, e := range entries {
		if e.Date == date {
			return i
		}
	}
	return -1
}
