package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/httpjson"
)

type SchedulesHandler struct {
	schedules *app.ScheduleService
	leaders   *app.LeaderService
	sync      *app.Synchronizer
	settings  *app.SettingsService

	// base borne les lots de synchronisation: seul l'arrêt du serveur les interrompt.
	base context.Context
}

func NewSchedulesHandler(schedules *app.ScheduleService, leaders *app.LeaderService, sync *app.Synchronizer, settings *app.SettingsService) *SchedulesHandler {
	return &SchedulesHandler{schedules: schedules, leaders: leaders, sync: sync, settings: settings, base: context.Background()}
}

// WithBatchContext rattache les lots sync/pull à ctx plutôt qu'à la requête.
func (h *SchedulesHandler) WithBatchContext(ctx context.Context) *SchedulesHandler {
	if ctx != nil {
		h.base = ctx
	}
	return h
}

func (h *SchedulesHandler) Routes(r chi.Router) {
	r.Get("/schedules", h.list)
	r.Get("/schedules/", h.list)
	r.Post("/schedules", h.create)
	r.Post("/schedules/", h.create)
	r.Get("/schedules/latest", h.latest)
	r.Get("/schedules/diff", h.diff)
	r.Get("/schedules/validation", h.validation)
	r.Get("/schedules/analysis", h.analysis)
	r.Get("/schedules/{date}", h.get)
	r.Put("/schedules/{date}", h.replace)
	r.Delete("/schedules/{date}", h.delete)
}

// BatchRoutes monte sync et pull, hors du middleware de timeout.
func (h *SchedulesHandler) BatchRoutes(r chi.Router) {
	r.Post("/schedules/sync", h.push)
	r.Post("/schedules/pull", h.pull)
}

// batchContext survit à la déconnexion du client et au timeout de la requête.
func (h *SchedulesHandler) batchContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	stop := context.AfterFunc(h.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (h *SchedulesHandler) list(w http.ResponseWriter, r *http.Request) {
	doc, err := h.schedules.Document(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	domain.SortByDateDesc(doc.Entries)
	httpjson.Write(w, http.StatusOK, doc)
}

func (h *SchedulesHandler) create(w http.ResponseWriter, r *http.Request) {
	var e domain.ScheduleEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := h.schedules.Create(r.Context(), e)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

func (h *SchedulesHandler) latest(w http.ResponseWriter, r *http.Request) {
	e, err := h.schedules.Latest(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, e)
}

func (h *SchedulesHandler) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.schedules.Get(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, e)
}

func (h *SchedulesHandler) replace(w http.ResponseWriter, r *http.Request) {
	var e domain.ScheduleEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	updated, err := h.schedules.Replace(r.Context(), chi.URLParam(r, "date"), e)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

func (h *SchedulesHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.schedules.Delete(r.Context(), chi.URLParam(r, "date")); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SchedulesHandler) diff(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		writeAppError(w, r, app.ErrRemoteNotConfigured)
		return
	}
	d, err := h.sync.Compare(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}

func (h *SchedulesHandler) validation(w http.ResponseWriter, r *http.Request) {
	entries, err := h.schedules.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var leaders []domain.Leader
	if h.leaders != nil {
		leaders, err = h.leaders.List(r.Context(), app.LeaderFilter{})
		if err != nil {
			writeAppError(w, r, err)
			return
		}
	}
	httpjson.Write(w, http.StatusOK, app.Validate(entries, leaders))
}

func (h *SchedulesHandler) analysis(w http.ResponseWriter, r *http.Request) {
	entries, err := h.schedules.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, app.Analyze(entries, time.Now()))
}

// push: mode=diff (défaut) pousse localOnly + conflits, mode=upsert pousse tout.
func (h *SchedulesHandler) push(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		writeAppError(w, r, app.ErrRemoteNotConfigured)
		return
	}
	ctx, cancel := h.batchContext(r)
	defer cancel()
	q := r.URL.Query()

	opts := app.PushOptions{}
	if raw := q.Get("refresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, "invalid refresh")
			return
		}
		opts.Refresh = v
	} else if h.settings != nil {
		s, err := h.settings.Get(ctx)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		opts.Refresh = s.RefreshAfterPush
	}

	var (
		rep domain.SyncReport
		err error
	)
	switch q.Get("mode") {
	case "", "diff":
		var d domain.DiffResult
		d, err = h.sync.Compare(ctx)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		rep, err = h.sync.PushLocalToRemote(ctx, d, opts)
	case "upsert":
		rep, err = h.sync.PushAll(ctx, opts)
	default:
		httpjson.WriteErrorCode(w, http.StatusBadRequest, "invalid_mode", "mode must be diff or upsert")
		return
	}
	if err != nil && rep.ID == "" {
		writeAppError(w, r, err)
		return
	}
	// Rapport partiel: l'échec du refresh reste visible dans RefreshError.
	httpjson.Write(w, http.StatusOK, rep)
}

func (h *SchedulesHandler) pull(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		writeAppError(w, r, app.ErrRemoteNotConfigured)
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	ctx, cancel := h.batchContext(r)
	defer cancel()
	rep, err := h.sync.PullRemoteToLocal(ctx, confirmed)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, rep)
}
