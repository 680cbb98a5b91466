package domain

type DuplicateGroup struct {
	Date    string          `json:"date"`
	Entries []ScheduleEntry `json:"entries"`
}

type MalformedEntry struct {
	Entry  ScheduleEntry `json:"entry"`
	Reason string        `json:"reason"`
}

// ValidationReport is read-only output of the local-store checks.
type ValidationReport struct {
	InvalidLeaders []ScheduleEntry  `json:"invalidLeaders"`
	InvalidHosts   []ScheduleEntry  `json:"invalidHosts"`
	DuplicateDates []DuplicateGroup `json:"duplicateDates"`
	Malformed      []MalformedEntry `json:"malformed"`
	IsValid        bool             `json:"isValid"`
}
