package domain

import (
	"errors"
	"time"
)

type SyncDirection string

const (
	SyncPush       SyncDirection = "push"
	SyncPushUpsert SyncDirection = "push-upsert"
	SyncPull       SyncDirection = "pull"
)

type ItemStatus string

const (
	ItemCreated ItemStatus = "created"
	ItemUpdated ItemStatus = "updated"
	ItemError   ItemStatus = "error"
)

// ItemResult est le résultat d'une opération distante unitaire.
type ItemResult struct {
	Date     string     `json:"date"`
	RemoteID string     `json:"id,omitempty"`
	Status   ItemStatus `json:"status"`
	Message  string     `json:"message,omitempty"`
}

// SyncReport résume une synchronisation.
type SyncReport struct {
	ID         string        `json:"id"`
	Direction  SyncDirection `json:"direction"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`

	Results      []ItemResult `json:"results"`
	TotalCreated int          `json:"totalCreated"`
	TotalUpdated int          `json:"totalUpdated"`
	TotalErrors  int          `json:"totalErrors"`

	// Pull et refresh post-push.
	LocalWritten int             `json:"localWritten,omitempty"`
	Dropped      []ScheduleEntry `json:"dropped,omitempty"`
	Refreshed    bool            `json:"refreshed"`
	RefreshError string          `json:"refreshError,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// Add enregistre un résultat et met à jour les compteurs.
func (r *SyncReport) Add(res ItemResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case ItemCreated:
		r.TotalCreated++
	case ItemUpdated:
		r.TotalUpdated++
	case ItemError:
		r.TotalErrors++
	}
}

type SyncRunState string

const (
	SyncRunCompleted SyncRunState = "completed"
	SyncRunPartial   SyncRunState = "partial"
	SyncRunFailed    SyncRunState = "failed"
)

func (s SyncRunState) IsKnown() bool {
	return s == SyncRunCompleted || s == SyncRunPartial || s == SyncRunFailed
}

// StateOf dérive l'état persisté d'un rapport.
func StateOf(r SyncReport) SyncRunState {
	switch {
	case r.Error != "":
		return SyncRunFailed
	case r.TotalErrors > 0 && r.TotalErrors == len(r.Results):
		return SyncRunFailed
	case r.TotalErrors > 0 || r.RefreshError != "":
		return SyncRunPartial
	default:
		return SyncRunCompleted
	}
}

// SyncRun est l'historique persistant d'un SyncReport.
type SyncRun struct {
	ID         string
	Direction  SyncDirection
	State      SyncRunState
	Created    int
	Updated    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
	ReportJSON []byte
}

var ErrUnknownRunState = errors.New("unknown sync run state")
