package app

import (
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

const unknownYear = "未知"

// Analyze calcule les statistiques du planning; now sert de référence pour le futur.
func Analyze(entries []domain.ScheduleEntry, now time.Time) domain.ScheduleAnalysis {
	a := domain.ScheduleAnalysis{
		Total:               len(entries),
		ByWeekday:           map[string]int{},
		ByLeader:            map[string]int{},
		ByYear:              map[string]int{},
		FutureWithoutLeader: []domain.ScheduleEntry{},
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	dates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		if !domain.IsAbsent(e.LeaderName) {
			a.ByLeader[strings.TrimSpace(e.LeaderName)]++
		}
		t, err := domain.ParseDate(e.Date)
		if err != nil {
			a.ByYear[unknownYear]++
			continue
		}
		a.ByYear[t.Format("2006")]++
		a.ByWeekday[t.Weekday().String()]++
		dates = append(dates, t)

		if !t.Before(today) {
			a.FutureCount++
			if domain.IsAbsent(e.LeaderName) {
				a.FutureWithoutLeader = append(a.FutureWithoutLeader, e)
			}
		}
	}
	a.UniqueLeaders = len(a.ByLeader)
	a.AverageIntervalDays = averageInterval(dates)
	return a
}

func averageInterval(dates []time.Time) float64 {
	if len(dates) < 2 {
		return 0
	}
	minT, maxT := dates[0], dates[0]
	for _, t := range dates[1:] {
		if t.Before(minT) {
			minT = t
		}
		if t.After(maxT) {
			maxT = t
		}
	}
	days := maxT.Sub(minT).Hours() / 24
	return days / float64(len(dates)-1)
}
