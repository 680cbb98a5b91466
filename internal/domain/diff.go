package domain

// Conflict pairs the two versions of an entry sharing the same date.
type Conflict struct {
	Local  ScheduleEntry `json:"local"`
	Remote ScheduleEntry `json:"remote"`
	// Fields liste les champs divergents ("leaderName", "hostName").
	Fields []string `json:"fields"`
}

// DiffResult holds three disjoint sequences plus the skipped-entry warnings.
type DiffResult struct {
	LocalOnly  []ScheduleEntry `json:"localOnly"`
	RemoteOnly []ScheduleEntry `json:"remoteOnly"`
	Conflicts  []Conflict      `json:"conflicts"`
	Warnings   []string        `json:"warnings,omitempty"`
}

func (d DiffResult) IsEmpty() bool {
	return len(d.LocalOnly) == 0 && len(d.RemoteOnly) == 0 && len(d.Conflicts) == 0
}

// Swap renvoie le diff vu depuis l'autre store.
func (d DiffResult) Swap() DiffResult {
	out := DiffResult{
		LocalOnly:  d.RemoteOnly,
		RemoteOnly: d.LocalOnly,
		Conflicts:  make([]Conflict, 0, len(d.Conflicts)),
		Warnings:   d.Warnings,
	}
	for _, c := range d.Conflicts {
		out.Conflicts = append(out.Conflicts, Conflict{Local: c.Remote, Remote: c.Local, Fields: c.Fields})
	}
	return out
}
