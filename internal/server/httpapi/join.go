package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
)

type joinRequest struct {
	RoomID          string        `json:"roomId"`
	ParticipantName string        `json:"participantName"`
	Gender          models.Gender `json:"gender"`
	IsHost          bool          `json:"isHost"`
	RoomPassword    string        `json:"roomPassword"`
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req joinRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	res, err := h.svc.Access.Join(ctx, services.JoinRequest{
		RoomID:          req.RoomID,
		ParticipantName: req.ParticipantName,
		Gender:          req.Gender,
		IsHost:          req.IsHost,
		Password:        req.RoomPassword,
		ClientIP:        clientIP(ctx),
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
