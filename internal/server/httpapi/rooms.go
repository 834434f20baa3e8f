package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

type createRoomRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Template    models.Template `json:"template"`
	Locked      bool            `json:"locked"`
	Password    string          `json:"password"`
	Creator     string          `json:"creator"`
}

type settingsPatch struct {
	AllowedGenders  *[]models.Gender `json:"allowedGenders"`
	RequireHost     *bool            `json:"requireHost"`
	MaxParticipants *int             `json:"maxParticipants"`
}

type updateRoomRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Template    *models.Template `json:"template"`
	Locked      *bool            `json:"locked"`
	Password    *string          `json:"password"`
	Settings    *settingsPatch   `json:"settings"`
	ActorName   string           `json:"actorName"`
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := services.RoomListFilter{Template: models.Template(q.Get("template"))}
	if v := q.Get("locked"); v != "" {
		locked, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(ctx, w, &services.ValidationError{Message: "locked must be true or false"})
			return
		}
		f.Locked = &locked
	}

	rooms, err := h.svc.Rooms.List(ctx, f)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRoomRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	room, err := h.svc.Rooms.Create(ctx, services.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		Template:    req.Template,
		Locked:      req.Locked,
		Password:    req.Password,
		Creator:     req.Creator,
		IPAddress:   clientIP(ctx),
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	room, err := h.svc.Rooms.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) updateRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateRoomRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	in := services.UpdateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		Template:    req.Template,
		Locked:      req.Locked,
		Password:    req.Password,
		ActorName:   req.ActorName,
		IPAddress:   clientIP(ctx),
	}
	if s := req.Settings; s != nil {
		in.Settings = &services.SettingsPatch{
			AllowedGenders:  s.AllowedGenders,
			RequireHost:     s.RequireHost,
			MaxParticipants: s.MaxParticipants,
		}
	}

	room, err := h.svc.Rooms.Update(ctx, mux.Vars(r)["id"], in)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) deleteRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.svc.Rooms.Delete(ctx, mux.Vars(r)["id"], r.URL.Query().Get("actorName"), clientIP(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
