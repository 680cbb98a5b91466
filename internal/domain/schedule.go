package domain

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Unspecified est la valeur sentinelle utilisée pour un leader/hôte non renseigné.
const Unspecified = "未指定"

// DateLayout est le format canonique d'une date de séance.
const DateLayout = "2006-01-02"

var periodPattern = regexp.MustCompile(`第(\d+)期`)

var (
	ErrMissingDate     = errors.New("missing date")
	ErrMissingBookName = errors.New("missing book name")
	ErrInvalidDate     = errors.New("invalid date")
)

// ScheduleEntry est une séance du club de lecture.
type ScheduleEntry struct {
	Date       string `json:"date"`
	BookName   string `json:"bookName"`
	LeaderName string `json:"leaderName,omitempty"`
	HostName   string `json:"hostName,omitempty"`
	Period     *int   `json:"period,omitempty"`

	// RemoteID est l'identifiant de la page distante. Jamais persisté localement.
	RemoteID string `json:"-"`
}

// Schedule est le document du store local.
type Schedule struct {
	LastUpdated time.Time       `json:"lastUpdated"`
	Entries     []ScheduleEntry `json:"schedule"`
}

// IsAbsent reports whether an optional name field carries no real value.
func IsAbsent(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || name == Unspecified
}

// SameName compares two optional name fields; absent on both sides is equal.
func SameName(a, b string) bool {
	if IsAbsent(a) && IsAbsent(b) {
		return true
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// ParseDate accepte YYYY-MM-DD ou un horodatage RFC3339 (dates Notion avec heure).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// Check verifies the fields every persisted entry needs.
func (e ScheduleEntry) Check() error {
	if strings.TrimSpace(e.Date) == "" {
		return ErrMissingDate
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if strings.TrimSpace(e.BookName) == "" {
		return ErrMissingBookName
	}
	return nil
}

// EffectivePeriod renvoie la période explicite, sinon celle extraite du titre (第N期).
func (e ScheduleEntry) EffectivePeriod() (int, bool) {
	if e.Period != nil {
		return *e.Period, true
	}
	return PeriodFromTitle(e.BookName)
}

func PeriodFromTitle(title string) (int, bool) {
	m := periodPattern.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Leader renvoie le nom du leader ou la sentinelle.
func (e ScheduleEntry) Leader() string {
	if IsAbsent(e.LeaderName) {
		return Unspecified
	}
	return e.LeaderName
}

func (e ScheduleEntry) Host() string {
	if IsAbsent(e.HostName) {
		return Unspecified
	}
	return e.HostName
}

// SortByDateDesc trie en place, les dates illisibles en dernier.
func SortByDateDesc(entries []ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, erri := ParseDate(entries[i].Date)
		tj, errj := ParseDate(entries[j].Date)
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return ti.After(tj)
	})
}

// Latest returns the entry with the most recent date.
func Latest(entries []ScheduleEntry) (ScheduleEntry, bool) {
	if len(entries) == 0 {
		return ScheduleEntry{}, false
	}
	sorted := append([]ScheduleEntry(nil), entries...)
	SortByDateDesc(sorted)
	if _, err := ParseDate(sorted[0].Date); err != nil {
		return ScheduleEntry{}, false
	}
	return sorted[0], true
}

// EntryPatch décrit une mise à jour partielle d'une page distante; nil = inchangé.
type EntryPatch struct {
	Date       *string
	BookName   *string
	LeaderName *string
	HostName   *string
}

// FullPatch couvre tous les champs (variante create-or-update).
func FullPatch(e ScheduleEntry) EntryPatch {
	date, book, leader, host := e.Date, e.BookName, e.Leader(), e.Host()
	return EntryPatch{Date: &date, BookName: &book, LeaderName: &leader, HostName: &host}
}

// MutablePatch ne touche que leader et hôte, les deux champs modifiables lors d'un conflit.
func MutablePatch(e ScheduleEntry) EntryPatch {
	leader, host := e.Leader(), e.Host()
	return EntryPatch{LeaderName: &leader, HostName: &host}
}

type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// SortKeyDate est la seule clé de tri exposée par le store distant.
const SortKeyDate = "date"
