package app

import (
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

// Validate vérifie le store local contre la liste des leaders. Ne modifie rien.
func Validate(entries []domain.ScheduleEntry, leaders []domain.Leader) domain.ValidationReport {
	roster := domain.NewRoster(leaders)
	rep := domain.ValidationReport{
		InvalidLeaders: []domain.ScheduleEntry{},
		InvalidHosts:   []domain.ScheduleEntry{},
		DuplicateDates: []domain.DuplicateGroup{},
		Malformed:      []domain.MalformedEntry{},
	}

	byDate := map[string][]domain.ScheduleEntry{}
	var dates []string
	for _, e := range entries {
		if err := e.Check(); err != nil {
			rep.Malformed = append(rep.Malformed, domain.MalformedEntry{Entry: e, Reason: err.Error()})
		}
		if !domain.IsAbsent(e.LeaderName) && !roster.IsLeader(e.LeaderName) {
			rep.InvalidLeaders = append(rep.InvalidLeaders, e)
		}
		if !domain.IsAbsent(e.HostName) && !roster.IsHost(e.HostName) {
			rep.InvalidHosts = append(rep.InvalidHosts, e)
		}
		if e.Date == "" {
			continue
		}
		if _, seen := byDate[e.Date]; !seen {
			dates = append(dates, e.Date)
		}
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	for _, d := range dates {
		if group := byDate[d]; len(group) > 1 {
			rep.DuplicateDates = append(rep.DuplicateDates, domain.DuplicateGroup{Date: d, Entries: group})
		}
	}

	rep.IsValid = len(rep.InvalidLeaders) == 0 &&
		len(rep.InvalidHosts) == 0 &&
		len(rep.DuplicateDates) == 0 &&
		len(rep.Malformed) == 0
	return rep
}
