package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

// RunRecorder persiste l'historique des synchronisations.
// Côté serveur il écoute le bus; la CLI appelle Record directement.
type RunRecorder struct {
	logger zerolog.Logger
	bus    ports.EventBus
	runs   ports.SyncRunRepository
}

func NewRunRecorder(logger zerolog.Logger, bus ports.EventBus, runs ports.SyncRunRepository) *RunRecorder {
	return &RunRecorder{logger: logger, bus: bus, runs: runs}
}

type SyncRunDTO struct {
	ID         string             `json:"id"`
	Direction  string             `json:"direction"`
	State      string             `json:"state"`
	Created    int                `json:"created"`
	Updated    int                `json:"updated"`
	Failed     int                `json:"failed"`
	StartedAt  string             `json:"startedAt"`
	FinishedAt string             `json:"finishedAt"`
	Report     *domain.SyncReport `json:"report,omitempty"`
}

func toSyncRunDTO(r domain.SyncRun, withReport bool) SyncRunDTO {
	dto := SyncRunDTO{
		ID:         r.ID,
		Direction:  string(r.Direction),
		State:      string(r.State),
		Created:    r.Created,
		Updated:    r.Updated,
		Failed:     r.Failed,
		StartedAt:  r.StartedAt.Format(time.RFC3339),
		FinishedAt: r.FinishedAt.Format(time.RFC3339),
	}
	if withReport && len(r.ReportJSON) > 0 {
		var rep domain.SyncReport
		if err := json.Unmarshal(r.ReportJSON, &rep); err == nil {
			dto.Report = &rep
		}
	}
	return dto
}

func (u *RunRecorder) Record(ctx context.Context, rep domain.SyncReport) error {
	if u == nil || u.runs == nil {
		return nil
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = u.runs.Create(ctx, domain.SyncRun{
		ID:         rep.ID,
		Direction:  rep.Direction,
		State:      domain.StateOf(rep),
		Created:    rep.TotalCreated,
		Updated:    rep.TotalUpdated,
		Failed:     rep.TotalErrors,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		ReportJSON: b,
	})
	if err != nil {
		u.logger.Warn().Err(err).Str("sync_id", rep.ID).Msg("failed to record sync run")
	}
	return err
}

func (u *RunRecorder) List(ctx context.Context, limit int) ([]SyncRunDTO, error) {
	runs, err := u.runs.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SyncRunDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, toSyncRunDTO(r, false))
	}
	return out, nil
}

func (u *RunRecorder) Get(ctx context.Context, id string) (SyncRunDTO, error) {
	r, err := u.runs.Get(ctx, id)
	if err != nil {
		return SyncRunDTO{}, err
	}
	return toSyncRunDTO(r, true), nil
}

// Start s'abonne au bus avant de rendre la main, puis écoute en arrière-plan.
// Le canal retourné est fermé quand l'écoute s'arrête.
func (u *RunRecorder) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if u == nil || u.bus == nil || u.runs == nil {
		close(done)
		return done
	}
	ch, cancel := u.bus.Subscribe()
	go func() {
		defer close(done)
		defer cancel()
		u.listen(ctx, ch)
	}()
	return done
}

// Run bloque jusqu'à l'annulation de ctx.
func (u *RunRecorder) Run(ctx context.Context) {
	<-u.Start(ctx)
}

func (u *RunRecorder) listen(ctx context.Context, ch <-chan ports.Event) {
	for {
		select {
		case <-ctx.Done():
			u.logger.Info().Msg("run recorder stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			u.handleEvent(ctx, evt)
		}
	}
}

func (u *RunRecorder) handleEvent(ctx context.Context, evt ports.Event) {
	if evt.Topic != TopicSyncCompleted {
		return
	}
	var rep domain.SyncReport
	if err := json.Unmarshal(evt.Payload, &rep); err != nil || rep.ID == "" {
		return
	}
	_ = u.Record(ctx, rep)
}
