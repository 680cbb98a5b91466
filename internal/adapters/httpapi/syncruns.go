package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/httpjson"
)

const defaultSyncRunsLimit = 50

type SyncRunsHandler struct {
	runs *app.RunRecorder
}

func NewSyncRunsHandler(runs *app.RunRecorder) *SyncRunsHandler {
	return &SyncRunsHandler{runs: runs}
}

func (h *SyncRunsHandler) Routes(r chi.Router) {
	r.Route("/sync-runs", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
}

func (h *SyncRunsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultSyncRunsLimit
	}
	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, runs)
}

func (h *SyncRunsHandler) get(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, run)
}
