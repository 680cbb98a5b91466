package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/httpjson"
)

type InvitationsHandler struct {
	invitations *app.InvitationService
}

func NewInvitationsHandler(invitations *app.InvitationService) *InvitationsHandler {
	return &InvitationsHandler{invitations: invitations}
}

func (h *InvitationsHandler) Routes(r chi.Router) {
	r.Post("/invitations", h.generate)
}

type invitationResponse struct {
	Invitation domain.Invitation       `json:"invitation"`
	Params     domain.InvitationParams `json:"params"`
	Text       string                  `json:"text"`
	FileName   string                  `json:"fileName"`
}

// generate part de la séance de la date demandée (la plus récente si vide);
// les champs non vides du corps l'emportent.
func (h *InvitationsHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req domain.InvitationParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx := r.Context()

	p, err := h.invitations.ParamsForDate(ctx, strings.TrimSpace(req.Date))
	switch {
	case err == nil:
	case errors.Is(err, app.ErrNotFound) && req.Date != "" && req.BookName != "":
		p = domain.InvitationParams{Date: req.Date}
	default:
		writeAppError(w, r, err)
		return
	}
	p = mergeParams(p, req)

	inv, err := h.invitations.Generate(ctx, p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, invitationResponse{
		Invitation: inv,
		Params:     p,
		Text:       app.InvitationText(inv),
		FileName:   app.InvitationFileName(p),
	})
}

func mergeParams(base, over domain.InvitationParams) domain.InvitationParams {
	if over.Period != nil {
		base.Period = over.Period
	}
	if s := strings.TrimSpace(over.BookName); s != "" {
		base.BookName = s
	}
	if s := strings.TrimSpace(over.LeaderName); s != "" {
		base.LeaderName = s
	}
	if s := strings.TrimSpace(over.BookIntro); s != "" {
		base.BookIntro = s
	}
	if s := strings.TrimSpace(over.RoomNumber); s != "" {
		base.RoomNumber = s
	}
	if s := strings.TrimSpace(over.WechatLink); s != "" {
		base.WechatLink = s
	}
	if base.Period == nil {
		if n, ok := domain.PeriodFromTitle(base.BookName); ok {
			base.Period = &n
		}
	}
	return base
}
