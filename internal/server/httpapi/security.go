package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

// securityRequest carries every action's payload; expiresAt is unix
// milliseconds.
type securityRequest struct {
	Action         services.SecurityAction     `json:"action"`
	ActorName      string                      `json:"actorName"`
	IP             string                      `json:"ip"`
	Reason         string                      `json:"reason"`
	ExpiresAt      *int64                      `json:"expiresAt"`
	SecurityConfig *models.SecurityConfigPatch `json:"securityConfig"`
	Password       string                      `json:"password"`
	ExpiryMinutes  int                         `json:"expiryMinutes"`
}

func (h *Handler) securityInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	if err := h.requireHost(r, id); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	info, err := h.svc.Security.Info(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) securityAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	if err := h.requireHost(r, id); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	var req securityRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	sr := services.SecurityRequest{
		Action:         req.Action,
		ActorName:      req.ActorName,
		ClientIP:       clientIP(ctx),
		IP:             req.IP,
		Reason:         req.Reason,
		SecurityConfig: req.SecurityConfig,
		Password:       req.Password,
		ExpiryMinutes:  req.ExpiryMinutes,
	}
	if req.ExpiresAt != nil {
		t := time.UnixMilli(*req.ExpiresAt).UTC()
		sr.ExpiresAt = &t
	}

	res, err := h.svc.Security.Apply(ctx, id, sr)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
