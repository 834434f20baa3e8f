package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
)

type auditFilters struct {
	RoomID    string             `json:"roomId,omitempty"`
	Action    models.AuditAction `json:"action,omitempty"`
	ActorName string             `json:"actorName,omitempty"`
	StartTime *int64             `json:"startTime,omitempty"`
	EndTime   *int64             `json:"endTime,omitempty"`
	Limit     int                `json:"limit,omitempty"`
}

type auditLogsResponse struct {
	Logs    []models.AuditLog `json:"logs"`
	Count   int               `json:"count"`
	Filters auditFilters      `json:"filters"`
}

func parseMillis(q url.Values, key string) (*int64, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, &services.ValidationError{Message: key + " must be a unix timestamp in milliseconds"}
	}
	return &n, nil
}

func parseFilters(q url.Values) (auditFilters, error) {
	f := auditFilters{
		RoomID:    q.Get("roomId"),
		Action:    models.AuditAction(q.Get("action")),
		ActorName: q.Get("actorName"),
	}
	var err error
	if f.StartTime, err = parseMillis(q, "startTime"); err != nil {
		return f, err
	}
	if f.EndTime, err = parseMillis(q, "endTime"); err != nil {
		return f, err
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, &services.ValidationError{Message: "limit must be an integer"}
		}
	}
	return f, nil
}

func (f auditFilters) model() models.AuditFilter {
	m := models.AuditFilter{RoomID: f.RoomID, Action: f.Action, ActorName: f.ActorName, Limit: f.Limit}
	if f.StartTime != nil {
		t := time.UnixMilli(*f.StartTime)
		m.StartTime = &t
	}
	if f.EndTime != nil {
		t := time.UnixMilli(*f.EndTime)
		m.EndTime = &t
	}
	return m
}

func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f, err := parseFilters(q)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	// entries carry ban reasons, so the trail is readable per room by its hosts
	if f.RoomID == "" {
		h.writeError(ctx, w, &services.ValidationError{Message: "roomId is required"})
		return
	}
	if err := h.requireHost(r, f.RoomID); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	if q.Get("stats") == "true" {
		stats, err := h.svc.Audit.Stats(ctx, f.RoomID)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}

	logs, err := h.svc.Audit.Query(ctx, f.model())
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, auditLogsResponse{Logs: logs, Count: len(logs), Filters: f})
}
