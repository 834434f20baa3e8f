package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/server/security"
	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
)

type ctxKey string

const clientIPKey ctxKey = "clientIP"

// clientIP returns the caller address stored by withClientIP.
func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

func (h *Handler) withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := security.ExtractClientIP(r, h.trustProxy)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey, ip)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"ip", clientIP(r.Context()),
			"duration", time.Since(start),
		)
	})
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	v := r.Header.Get(common.AuthorizationHeaderName)
	token, ok := strings.CutPrefix(v, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireHost checks the caller's bearer credential is a host credential
// for roomID's channel.
func (h *Handler) requireHost(r *http.Request, roomID string) error {
	_, err := h.svc.Hosts.Authorize(bearerToken(r), services.ChannelName(roomID))
	return err
}
