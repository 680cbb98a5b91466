package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/buildinfo"
	"github.com/Guilhem-Bonnet/bookclub/internal/httpjson"
)

const defaultRequestTimeout = 60 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]any{
		"status": "ok",
		"remote": s.deps.Sync != nil && s.deps.Sync.RemoteEnabled(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Fields.Inspect(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, rep)
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, app.ErrInvalid), errors.Is(err, app.ErrUnknownLeader):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, app.ErrRemoteNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError traduit les erreurs applicatives en statut HTTP + code stable.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	code := app.ErrorCode(err)
	switch {
	case code != "":
	case errors.Is(err, app.ErrConfirmationRequired):
		code = "confirmation_required"
	case errors.Is(err, app.ErrRemoteNotConfigured):
		code = "remote_not_configured"
	case status == http.StatusNotFound:
		code = "not_found"
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	httpjson.WriteErrorCode(w, status, code, err.Error())
}
