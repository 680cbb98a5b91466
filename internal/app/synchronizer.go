package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

const TopicSyncCompleted = "sync.completed"

// Synchronizer applique une fusion unidirectionnelle entre store local et distant.
// Les appels distants sont séquentiels; un échec unitaire n'interrompt jamais le lot.
type Synchronizer struct {
	logger     zerolog.Logger
	local      ports.ScheduleRepository
	remote     ports.RemoteSchedule
	reconciler *Reconciler
	bus        ports.EventBus
	recorder   *RunRecorder

	now func() time.Time
}

// NewSynchronizer accepte remote == nil (mode local uniquement).
func NewSynchronizer(logger zerolog.Logger, local ports.ScheduleRepository, remote ports.RemoteSchedule, bus ports.EventBus) *Synchronizer {
	return &Synchronizer{
		logger:     logger,
		local:      local,
		remote:     remote,
		reconciler: NewReconciler(logger),
		bus:        bus,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithRecorder persiste chaque rapport directement (utilisé par la CLI, sans bus).
func (s *Synchronizer) WithRecorder(r *RunRecorder) *Synchronizer {
	s.recorder = r
	return s
}

func (s *Synchronizer) RemoteEnabled() bool { return s.remote != nil }

type PushOptions struct {
	// Refresh relit le distant après le push et écrase le fichier local.
	Refresh bool
}

// FetchRemote lit le store distant, trié par date décroissante.
func (s *Synchronizer) FetchRemote(ctx context.Context) ([]domain.ScheduleEntry, error) {
	if s.remote == nil {
		return nil, ErrRemoteNotConfigured
	}
	return s.remote.Query(ctx, domain.SortKeyDate, domain.SortDescending)
}

// Compare charge les deux stores indépendamment et calcule le diff.
func (s *Synchronizer) Compare(ctx context.Context) (domain.DiffResult, error) {
	remote, err := s.FetchRemote(ctx)
	if err != nil {
		return domain.DiffResult{}, err
	}
	local, err := s.local.Load(ctx)
	if err != nil {
		return domain.DiffResult{}, err
	}
	return s.reconciler.Diff(local.Entries, remote), nil
}

// PushLocalToRemote crée les entrées localOnly et écrase leader/hôte distants pour chaque conflit.
func (s *Synchronizer) PushLocalToRemote(ctx context.Context, diff domain.DiffResult, opts PushOptions) (domain.SyncReport, error) {
	if s.remote == nil {
		return domain.SyncReport{}, ErrRemoteNotConfigured
	}
	rep := s.newReport(domain.SyncPush)

	for _, e := range diff.LocalOnly {
		rep.Add(s.create(ctx, e))
	}
	for _, c := range diff.Conflicts {
		id := c.Remote.RemoteID
		if id == "" {
			rep.Add(itemError(c.Local.Date, "", &CodedError{Code: "missing_remote_id", Message: "remote entry has no page id"}))
			continue
		}
		rep.Add(s.update(ctx, c.Local.Date, id, domain.MutablePatch(c.Local)))
	}

	err := s.refreshAfterPush(ctx, &rep, opts)
	return s.finish(rep), err
}

// PushAll est la variante create-or-update: chaque entrée locale met à jour la page
// distante de même date si elle existe, sinon la crée.
func (s *Synchronizer) PushAll(ctx context.Context, opts PushOptions) (domain.SyncReport, error) {
	if s.remote == nil {
		return domain.SyncReport{}, ErrRemoteNotConfigured
	}
	local, err := s.local.Load(ctx)
	if err != nil {
		return domain.SyncReport{}, err
	}
	existing, err := s.remote.Query(ctx, domain.SortKeyDate, domain.SortDescending)
	if err != nil {
		return domain.SyncReport{}, fmt.Errorf("query remote: %w", err)
	}
	pages := make(map[string]string, len(existing))
	for _, e := range existing {
		if _, ok := pages[e.Date]; !ok && e.RemoteID != "" {
			pages[e.Date] = e.RemoteID
		}
	}

	rep := s.newReport(domain.SyncPushUpsert)
	for _, e := range local.Entries {
		if id, ok := pages[e.Date]; ok {
			if err := e.Check(); err != nil {
				s.logger.Warn().Str("date", e.Date).Err(err).Msg("malformed entry not pushed")
				rep.Add(itemError(e.Date, id, &CodedError{Code: "malformed_entry", Err: err}))
				continue
			}
			rep.Add(s.update(ctx, e.Date, id, domain.FullPatch(e)))
			continue
		}
		res := s.create(ctx, e)
		if res.Status == domain.ItemCreated {
			pages[e.Date] = res.RemoteID
		}
		rep.Add(res)
	}

	err = s.refreshAfterPush(ctx, &rep, opts)
	return s.finish(rep), err
}

// PullRemoteToLocal écrase entièrement le store local avec le distant.
// Les entrées locales absentes du distant disparaissent: confirmation obligatoire.
func (s *Synchronizer) PullRemoteToLocal(ctx context.Context, confirmed bool) (domain.SyncReport, error) {
	if s.remote == nil {
		return domain.SyncReport{}, ErrRemoteNotConfigured
	}
	if !confirmed {
		return domain.SyncReport{}, ErrConfirmationRequired
	}
	rep := s.newReport(domain.SyncPull)

	remote, err := s.remote.Query(ctx, domain.SortKeyDate, domain.SortDescending)
	if err != nil {
		rep.Error = err.Error()
		return s.finish(rep), fmt.Errorf("query remote: %w", err)
	}
	previous, err := s.local.Load(ctx)
	if err != nil {
		rep.Error = err.Error()
		return s.finish(rep), err
	}

	written, err := s.overwriteLocal(ctx, remote)
	if err != nil {
		rep.Error = err.Error()
		return s.finish(rep), err
	}
	rep.LocalWritten = len(written)
	rep.Dropped = droppedEntries(previous.Entries, written)
	return s.finish(rep), nil
}

func (s *Synchronizer) create(ctx context.Context, e domain.ScheduleEntry) domain.ItemResult {
	if err := e.Check(); err != nil {
		s.logger.Warn().Str("date", e.Date).Err(err).Msg("malformed entry not pushed")
		return itemError(e.Date, "", &CodedError{Code: "malformed_entry", Err: err})
	}
	id, err := s.remote.Create(ctx, e)
	if err != nil {
		s.logger.Error().Err(err).Str("date", e.Date).Msg("remote create failed")
		return itemError(e.Date, "", err)
	}
	s.logger.Info().Str("date", e.Date).Str("id", id).Msg("remote entry created")
	return domain.ItemResult{Date: e.Date, RemoteID: id, Status: domain.ItemCreated}
}

func (s *Synchronizer) update(ctx context.Context, date, id string, patch domain.EntryPatch) domain.ItemResult {
	if err := s.remote.Update(ctx, id, patch); err != nil {
		s.logger.Error().Err(err).Str("date", date).Str("id", id).Msg("remote update failed")
		return itemError(date, id, err)
	}
	s.logger.Info().Str("date", date).Str("id", id).Msg("remote entry updated")
	return domain.ItemResult{Date: date, RemoteID: id, Status: domain.ItemUpdated}
}

func itemError(date, id string, err error) domain.ItemResult {
	return domain.ItemResult{Date: date, RemoteID: id, Status: domain.ItemError, Message: err.Error()}
}

// refreshAfterPush: un échec de lecture distante est consigné, un échec d'écriture locale est renvoyé.
// Après un échec unitaire le fichier local n'est pas réécrit: les entrées non poussées y restent.
func (s *Synchronizer) refreshAfterPush(ctx context.Context, rep *domain.SyncReport, opts PushOptions) error {
	if !opts.Refresh {
		return nil
	}
	if rep.TotalErrors > 0 {
		s.logger.Warn().Int("errors", rep.TotalErrors).Msg("refresh after push skipped, local file untouched")
		rep.RefreshError = fmt.Sprintf("skipped: %d item(s) failed", rep.TotalErrors)
		return nil
	}
	remote, err := s.remote.Query(ctx, domain.SortKeyDate, domain.SortDescending)
	if err != nil {
		s.logger.Warn().Err(err).Msg("refresh after push: remote query failed, local file untouched")
		rep.RefreshError = err.Error()
		return nil
	}
	written, err := s.overwriteLocal(ctx, remote)
	if err != nil {
		rep.RefreshError = err.Error()
		return fmt.Errorf("refresh local store: %w", err)
	}
	rep.Refreshed = true
	rep.LocalWritten = len(written)
	return nil
}

// overwriteLocal renvoie les entrées effectivement écrites (les malformées sont ignorées).
func (s *Synchronizer) overwriteLocal(ctx context.Context, remote []domain.ScheduleEntry) ([]domain.ScheduleEntry, error) {
	entries := make([]domain.ScheduleEntry, 0, len(remote))
	for _, e := range remote {
		if err := e.Check(); err != nil {
			s.logger.Warn().Str("date", e.Date).Str("book", e.BookName).Err(err).Msg("remote entry skipped")
			continue
		}
		e.RemoteID = ""
		entries = append(entries, e)
	}
	doc := domain.Schedule{LastUpdated: s.now(), Entries: entries}
	if err := s.local.Save(ctx, doc); err != nil {
		return nil, err
	}
	return entries, nil
}

func droppedEntries(previous, written []domain.ScheduleEntry) []domain.ScheduleEntry {
	dates := make(map[string]struct{}, len(written))
	for _, e := range written {
		dates[e.Date] = struct{}{}
	}
	var out []domain.ScheduleEntry
	for _, e := range previous {
		if _, ok := dates[e.Date]; !ok {
			out = append(out, e)
		}
	}
	return out
}

func (s *Synchronizer) newReport(dir domain.SyncDirection) domain.SyncReport {
	return domain.SyncReport{
		ID:        xid.New().String(),
		Direction: dir,
		StartedAt: s.now(),
		Results:   []domain.ItemResult{},
	}
}

func (s *Synchronizer) finish(rep domain.SyncReport) domain.SyncReport {
	rep.FinishedAt = s.now()
	s.logger.Info().
		Str("sync_id", rep.ID).
		Str("direction", string(rep.Direction)).
		Int("created", rep.TotalCreated).
		Int("updated", rep.TotalUpdated).
		Int("errors", rep.TotalErrors).
		Bool("refreshed", rep.Refreshed).
		Msg("sync finished")

	if s.bus != nil {
		if b, err := json.Marshal(rep); err == nil {
			s.bus.Publish(TopicSyncCompleted, b)
		}
	}
	if s.recorder != nil {
		// Best-effort.
		_ = s.recorder.Record(context.Background(), rep)
	}
	return rep
}
