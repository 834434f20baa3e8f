package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
)

type spotlightRequest struct {
	RoomName            string `json:"roomName"`
	ParticipantIdentity string `json:"participantIdentity"`
	IsSpotlighted       bool   `json:"isSpotlighted"`
}

func (h *Handler) spotlight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req spotlightRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	err := h.svc.Spotlight.Set(ctx, services.SpotlightRequest{
		Channel:             req.RoomName,
		ParticipantIdentity: req.ParticipantIdentity,
		IsSpotlighted:       req.IsSpotlighted,
		Credential:          bearerToken(r),
		ClientIP:            clientIP(ctx),
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
