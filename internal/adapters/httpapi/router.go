package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

// Deps regroupe les services exposés par l'API. Les champs nil désactivent leurs routes,
// sauf Sync qui reste monté pour répondre 503 en mode local.
type Deps struct {
	Schedules   *app.ScheduleService
	Leaders     *app.LeaderService
	Sync        *app.Synchronizer
	Invitations *app.InvitationService
	Fields      *app.FieldInspector
	Settings    *app.SettingsService
	Runs        *app.RunRecorder
	// Pages est le client Notion brut du relais websocket (nil en mode local).
	Pages PageStore
	Bus   ports.EventBus

	AllowedOrigins []string

	// RequestTimeout borne les requêtes courtes (0 = 60s). Flux et lots sync/pull en sont exclus.
	RequestTimeout time.Duration
	// BatchContext est annulé à l'arrêt du serveur; il interrompt les lots en cours.
	BatchContext context.Context
}

type Server struct {
	logger zerolog.Logger
	deps   Deps
}

func NewServer(logger zerolog.Logger, deps Deps) *Server {
	return &Server{logger: logger, deps: deps}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))
	if len(s.deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Request-Id"},
			ExposedHeaders: []string{"Request-Id"},
			MaxAge:         300,
		}))
	}

	timeout := s.deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	var schedules *SchedulesHandler
	if s.deps.Schedules != nil {
		schedules = NewSchedulesHandler(s.deps.Schedules, s.deps.Leaders, s.deps.Sync, s.deps.Settings).
			WithBatchContext(s.deps.BatchContext)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Flux longs et lots de synchronisation: pas de timeout.
		r.Get("/events", s.handleEvents)
		r.Get("/notion/ws", s.handleNotionWS)
		if schedules != nil {
			schedules.BatchRoutes(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			r.Get("/health", s.handleHealth)
			r.Get("/version", s.handleVersion)
			r.Get("/openapi.json", s.handleOpenAPI)

			if schedules != nil {
				schedules.Routes(r)
			}
			if s.deps.Leaders != nil {
				NewLeadersHandler(s.deps.Leaders).Routes(r)
			}
			if s.deps.Runs != nil {
				NewSyncRunsHandler(s.deps.Runs).Routes(r)
			}
			if s.deps.Settings != nil {
				NewSettingsHandler(s.deps.Settings).Routes(r)
			}
			if s.deps.Invitations != nil {
				NewInvitationsHandler(s.deps.Invitations).Routes(r)
			}
			if s.deps.Fields != nil {
				r.Get("/fields", s.handleFields)
			}
		})
	})

	return r
}
