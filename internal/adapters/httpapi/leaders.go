package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/httpjson"
)

type LeadersHandler struct {
	leaders *app.LeaderService
}

func NewLeadersHandler(leaders *app.LeaderService) *LeadersHandler {
	return &LeadersHandler{leaders: leaders}
}

func (h *LeadersHandler) Routes(r chi.Router) {
	r.Route("/leaders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{name}", h.get)
		r.Put("/{name}", h.update)
		r.Delete("/{name}", h.delete)
	})
}

// list accepte ?q= (sous-chaîne) et ?hosts=true.
func (h *LeadersHandler) list(w http.ResponseWriter, r *http.Request) {
	hosts, _ := strconv.ParseBool(r.URL.Query().Get("hosts"))
	leaders, err := h.leaders.List(r.Context(), app.LeaderFilter{
		Query:     r.URL.Query().Get("q"),
		HostsOnly: hosts,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, leaders)
}

func (h *LeadersHandler) create(w http.ResponseWriter, r *http.Request) {
	var l domain.Leader
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := h.leaders.Create(r.Context(), l)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

func (h *LeadersHandler) get(w http.ResponseWriter, r *http.Request) {
	l, err := h.leaders.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, l)
}

func (h *LeadersHandler) update(w http.ResponseWriter, r *http.Request) {
	var l domain.Leader
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	updated, err := h.leaders.Update(r.Context(), chi.URLParam(r, "name"), l)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

func (h *LeadersHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.leaders.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
