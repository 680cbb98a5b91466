package domain

import "strings"

type Leader struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Intro  string `json:"intro"`
	IsHost bool   `json:"isHost"`
}

// Roster indexe les leaders par nom.
type Roster map[string]Leader

func NewRoster(leaders []Leader) Roster {
	r := make(Roster, len(leaders))
	for _, l := range leaders {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			continue
		}
		r[name] = l
	}
	return r
}

func (r Roster) IsLeader(name string) bool {
	_, ok := r[strings.TrimSpace(name)]
	return ok
}

func (r Roster) IsHost(name string) bool {
	l, ok := r[strings.TrimSpace(name)]
	return ok && l.IsHost
}
