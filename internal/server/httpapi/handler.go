// Package httpapi exposes the room services over JSON HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Services bundles what the handlers call into. StoreDegraded, when set,
// reports whether the room store has fallen back to memory.
type Services struct {
	Access        *services.AccessService
	Rooms         *services.RoomService
	Security      *services.SecurityService
	Audit         *services.AuditService
	Spotlight     *services.SpotlightService
	Hosts         *services.HostAuthorizer
	StoreDegraded func() bool
}

type Handler struct {
	svc        Services
	log        logging.Logger
	trustProxy bool
	now        func() time.Time
}

func NewHandler(svc Services, log logging.Logger, trustProxy bool) *Handler {
	return &Handler{svc: svc, log: log.With("module", "http"), trustProxy: trustProxy, now: time.Now}
}

// Router registers every route behind the client-IP and logging middleware.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.withClientIP, h.withLogging)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/templates", h.listTemplates).Methods(http.MethodGet)

	r.HandleFunc("/join", h.join).Methods(http.MethodPost)

	r.HandleFunc("/rooms", h.listRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms", h.createRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}", h.getRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}", h.updateRoom).Methods(http.MethodPatch)
	r.HandleFunc("/rooms/{id}", h.deleteRoom).Methods(http.MethodDelete)

	r.HandleFunc("/rooms/{id}/security", h.securityInfo).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}/security", h.securityAction).Methods(http.MethodPost)

	r.HandleFunc("/audit-logs", h.auditLogs).Methods(http.MethodGet)

	r.HandleFunc("/spotlight", h.spotlight).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{ErrorKind: "NotFound", Detail: "No such endpoint"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{ErrorKind: "MethodNotAllowed", Detail: "Method not allowed"})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &services.ValidationError{Message: "Invalid JSON body", Details: []string{err.Error()}}
	}
	return nil
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	degraded := h.svc.StoreDegraded != nil && h.svc.StoreDegraded()
	status := "ok"
	if degraded {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "degraded": degraded})
}
