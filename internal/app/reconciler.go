package app

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

// Reconciler compare le store local et le store distant, clé = date exacte.
type Reconciler struct {
	logger zerolog.Logger
}

func NewReconciler(logger zerolog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

type indexedStore struct {
	order  []string
	byDate map[string]domain.ScheduleEntry
}

func (r *Reconciler) index(side string, entries []domain.ScheduleEntry, warnings *[]string) indexedStore {
	idx := indexedStore{byDate: make(map[string]domain.ScheduleEntry, len(entries))}
	for i, e := range entries {
		if strings.TrimSpace(e.Date) == "" {
			msg := fmt.Sprintf("%s entry #%d (%q) has no date, skipped", side, i, e.BookName)
			r.logger.Warn().Str("store", side).Int("index", i).Str("book", e.BookName).Msg("entry without date skipped")
			*warnings = append(*warnings, msg)
			continue
		}
		if _, dup := idx.byDate[e.Date]; dup {
			msg := fmt.Sprintf("%s has several entries on %s, only the first is compared", side, e.Date)
			r.logger.Warn().Str("store", side).Str("date", e.Date).Msg("duplicate date ignored")
			*warnings = append(*warnings, msg)
			continue
		}
		idx.byDate[e.Date] = e
		idx.order = append(idx.order, e.Date)
	}
	return idx
}

// Diff classe chaque entrée en localOnly, remoteOnly ou conflit.
// Les entrées identiques (même leader, même hôte) sont omises.
func (r *Reconciler) Diff(local, remote []domain.ScheduleEntry) domain.DiffResult {
	out := domain.DiffResult{
		LocalOnly:  []domain.ScheduleEntry{},
		RemoteOnly: []domain.ScheduleEntry{},
		Conflicts:  []domain.Conflict{},
	}
	l := r.index("local", local, &out.Warnings)
	rm := r.index("remote", remote, &out.Warnings)

	for _, date := range l.order {
		le := l.byDate[date]
		re, ok := rm.byDate[date]
		if !ok {
			out.LocalOnly = append(out.LocalOnly, le)
			continue
		}
		if fields := differingFields(le, re); len(fields) > 0 {
			out.Conflicts = append(out.Conflicts, domain.Conflict{Local: le, Remote: re, Fields: fields})
		}
	}
	for _, date := range rm.order {
		if _, ok := l.byDate[date]; !ok {
			out.RemoteOnly = append(out.RemoteOnly, rm.byDate[date])
		}
	}

	r.logger.Debug().
		Int("local_only", len(out.LocalOnly)).
		Int("remote_only", len(out.RemoteOnly)).
		Int("conflicts", len(out.Conflicts)).
		Msg("diff computed")
	return out
}

func differingFields(a, b domain.ScheduleEntry) []string {
	var fields []string
	if !domain.SameName(a.LeaderName, b.LeaderName) {
		fields = append(fields, "leaderName")
	}
	if !domain.SameName(a.HostName, b.HostName) {
		fields = append(fields, "hostName")
	}
	return fields
}
