package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
)

// PageStore est l'accès brut aux pages Notion utilisé par le relais.
type PageStore interface {
	RetrievePage(ctx context.Context, id string) (json.RawMessage, error)
	UpdatePageProperties(ctx context.Context, id string, properties json.RawMessage) (json.RawMessage, error)
}

const (
	wsGetPage     = "GET_PAGE"
	wsUpdatePage  = "UPDATE_PAGE"
	wsPageData    = "PAGE_DATA"
	wsPageUpdated = "PAGE_UPDATED"
	wsError       = "ERROR"

	wsCallTimeout = 30 * time.Second
)

type wsRequest struct {
	Type       string          `json:"type"`
	PageID     string          `json:"pageId"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

type wsResponse struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// handleNotionWS relaie GET_PAGE / UPDATE_PAGE vers Notion, une requête à la fois par connexion.
func (s *Server) handleNotionWS(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pages == nil {
		writeAppError(w, r, app.ErrRemoteNotConfigured)
		return
	}
	opts := &websocket.AcceptOptions{}
	if len(s.deps.AllowedOrigins) > 0 {
		opts.OriginPatterns = originHosts(s.deps.AllowedOrigins)
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	logger := hlog.FromRequest(r).With().Str("component", "notion-ws").Logger()
	logger.Info().Msg("client connected")

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				logger.Debug().Err(err).Msg("client read ended")
			}
			logger.Info().Msg("client disconnected")
			return
		}
		resp := wsResponse{Type: wsError, Message: "invalid json"}
		var req wsRequest
		if err := json.Unmarshal(data, &req); err == nil {
			resp = s.relay(ctx, req)
		}
		if err := s.writeWS(ctx, conn, resp); err != nil {
			logger.Debug().Err(err).Msg("client write failed")
			return
		}
	}
}

func (s *Server) relay(ctx context.Context, req wsRequest) wsResponse {
	ctx, cancel := context.WithTimeout(ctx, wsCallTimeout)
	defer cancel()

	switch req.Type {
	case wsGetPage:
		if req.PageID == "" {
			return wsResponse{Type: wsError, Message: "missing pageId"}
		}
		data, err := s.deps.Pages.RetrievePage(ctx, req.PageID)
		if err != nil {
			return wsResponse{Type: wsError, Message: err.Error()}
		}
		return wsResponse{Type: wsPageData, Data: data}
	case wsUpdatePage:
		if req.PageID == "" {
			return wsResponse{Type: wsError, Message: "missing pageId"}
		}
		data, err := s.deps.Pages.UpdatePageProperties(ctx, req.PageID, req.Properties)
		if err != nil {
			return wsResponse{Type: wsError, Message: err.Error()}
		}
		return wsResponse{Type: wsPageUpdated, Data: data}
	default:
		return wsResponse{Type: wsError, Message: "unknown command"}
	}
}

func (s *Server) writeWS(ctx context.Context, conn *websocket.Conn, resp wsResponse) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, conn, resp)
}

// originHosts convertit "http://localhost:3000" en motif "localhost:3000".
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, o)
	}
	return out
}
