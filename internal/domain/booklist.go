package domain

import (
	"strings"
	"time"
)

// Unset désigne une valeur distante vide, à l'affichage comme dans les filtres.
const Unset = "未设置"

// BookRecord est une ligne de la base Notion, colonnes auteur et progression comprises.
type BookRecord struct {
	ScheduleEntry
	Author string `json:"author,omitempty"`
	Status string `json:"status,omitempty"`
}

// BooklistFilter: champs vides ignorés, correspondance par sous-chaîne,
// Unset correspond à une valeur absente. Period est comparé exactement.
type BooklistFilter struct {
	Book   string `json:"book,omitempty"`
	Leader string `json:"leader,omitempty"`
	Host   string `json:"host,omitempty"`
	Author string `json:"author,omitempty"`
	Status string `json:"status,omitempty"`
	Date   string `json:"date,omitempty"`
	Period *int   `json:"period,omitempty"`
}

func (f BooklistFilter) Empty() bool {
	return f.Book == "" && f.Leader == "" && f.Host == "" && f.Author == "" &&
		f.Status == "" && f.Date == "" && f.Period == nil
}

func (f BooklistFilter) Match(r BookRecord) bool {
	if !containsOrUnset(r.BookName, f.Book) ||
		!containsOrUnset(r.LeaderName, f.Leader) ||
		!containsOrUnset(r.HostName, f.Host) ||
		!containsOrUnset(r.Author, f.Author) ||
		!containsOrUnset(r.Status, f.Status) ||
		!containsOrUnset(r.Date, f.Date) {
		return false
	}
	if f.Period != nil {
		n, ok := PeriodFromTitle(r.BookName)
		if !ok || n != *f.Period {
			return false
		}
	}
	return true
}

func containsOrUnset(value, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	value = strings.TrimSpace(value)
	if value == "" || value == Unspecified {
		value = Unset
	}
	return strings.Contains(value, want)
}

type BooklistStats struct {
	Total      int `json:"total"`
	WithLeader int `json:"withLeader"`
	WithHost   int `json:"withHost"`
	WithAuthor int `json:"withAuthor"`
}

type Booklist struct {
	// Scanned compte toutes les lignes lues avant filtrage.
	Scanned int           `json:"scanned"`
	Records []BookRecord  `json:"records"`
	Stats   BooklistStats `json:"stats"`
}

func NewBooklist(all []BookRecord, f BooklistFilter) Booklist {
	out := Booklist{Scanned: len(all), Records: []BookRecord{}}
	for _, r := range all {
		if !f.Match(r) {
			continue
		}
		out.Records = append(out.Records, r)
		out.Stats.Total++
		if !IsAbsent(r.LeaderName) {
			out.Stats.WithLeader++
		}
		if !IsAbsent(r.HostName) {
			out.Stats.WithHost++
		}
		if strings.TrimSpace(r.Author) != "" {
			out.Stats.WithAuthor++
		}
	}
	return out
}

// Percent renvoie part/total en pourcentage, 0 si total est nul.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

// RecordProperty est une propriété d'une page distante, déjà rendue en texte.
type RecordProperty struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type RecordBlock struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	HasChildren bool   `json:"hasChildren,omitempty"`
}

// LatestRecord est la dernière page créée dans la base distante.
type LatestRecord struct {
	ID             string           `json:"id"`
	URL            string           `json:"url,omitempty"`
	CreatedTime    time.Time        `json:"createdTime"`
	LastEditedTime time.Time        `json:"lastEditedTime"`
	Properties     []RecordProperty `json:"properties"`
	Blocks         []RecordBlock    `json:"blocks"`
}

// RemoteHealth résume un test de connectivité vers la base distante.
type RemoteHealth struct {
	DatabaseID    string        `json:"databaseId"`
	DatabaseTitle string        `json:"databaseTitle,omitempty"`
	Properties    int           `json:"properties"`
	Missing       []string      `json:"missing,omitempty"`
	Latency       time.Duration `json:"latency"`
}

// Diagnosis regroupe l'état du store local et la connectivité distante.
type Diagnosis struct {
	LocalEntries int           `json:"localEntries"`
	LocalValid   bool          `json:"localValid"`
	LocalError   string        `json:"localError,omitempty"`
	Remote       *RemoteHealth `json:"remote,omitempty"`
	RemoteError  string        `json:"remoteError,omitempty"`
}

func (d Diagnosis) OK() bool {
	return d.LocalError == "" && d.RemoteError == "" && d.Remote != nil
}
