package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	ErrorKind   string          `json:"errorKind"`
	Detail      string          `json:"detail"`
	Details     []string        `json:"details,omitempty"`
	LockedUntil *time.Time      `json:"lockedUntil,omitempty"`
	Template    models.Template `json:"template,omitempty"`
}

var denialKinds = []struct {
	err    error
	kind   string
	status int
}{
	{common.ErrRoomNotFound, "RoomNotFound", http.StatusNotFound},
	{common.ErrRateLimited, "RateLimited", http.StatusTooManyRequests},
	{common.ErrIPBlocked, "IpBlocked", http.StatusForbidden},
	{common.ErrPasswordRequired, "PasswordRequired", http.StatusUnauthorized},
	{common.ErrPasswordIncorrect, "PasswordIncorrect", http.StatusUnauthorized},
	{common.ErrSessionPasswordIncorrect, "SessionPasswordIncorrect", http.StatusUnauthorized},
	{common.ErrGenderNotAllowed, "GenderNotAllowed", http.StatusForbidden},
	{common.ErrServerMisconfigured, "ServerMisconfigured", http.StatusInternalServerError},
}

// classify maps err to a status code and response body. Unknown errors
// become an opaque 500.
func classify(err error, now time.Time) (int, errorResponse, http.Header) {
	h := http.Header{}

	if d, ok := services.AsDenial(err); ok {
		for _, k := range denialKinds {
			if !errors.Is(d, k.err) {
				continue
			}
			resp := errorResponse{ErrorKind: k.kind, Detail: d.Error()}
			switch k.err {
			case common.ErrRateLimited:
				until := d.LockedUntil
				resp.LockedUntil = &until
				secs := int(math.Ceil(until.Sub(now).Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
			case common.ErrGenderNotAllowed:
				resp.Template = d.Template
			}
			return k.status, resp, h
		}
	}

	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorResponse{ErrorKind: "ValidationError", Detail: ve.Message, Details: ve.Details}, h
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, errorResponse{ErrorKind: "ValidationError", Detail: err.Error()}, h
	case errors.Is(err, common.ErrServerMisconfigured):
		return http.StatusInternalServerError, errorResponse{ErrorKind: "ServerMisconfigured", Detail: "Server misconfigured"}, h
	case errors.Is(err, common.ErrorNotFound):
		var nf *services.NotFoundError
		detail := "Room not found"
		if errors.As(err, &nf) {
			detail = nf.Message
		}
		return http.StatusNotFound, errorResponse{ErrorKind: "NotFound", Detail: detail}, h
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, errorResponse{ErrorKind: "Conflict", Detail: "Room already exists"}, h
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, errorResponse{ErrorKind: "Unauthorized", Detail: "Invalid or missing credential"}, h
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, errorResponse{ErrorKind: "Forbidden", Detail: "Only hosts of this room may do that"}, h
	}

	return http.StatusInternalServerError, errorResponse{ErrorKind: "Internal", Detail: "Internal server error"}, h
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, body, header := classify(err, h.now())
	if status == http.StatusInternalServerError {
		h.log.Error(ctx, "request failed", "error", err)
	}
	for k, v := range header {
		w.Header()[k] = v
	}
	writeJSON(w, status, body)
}
