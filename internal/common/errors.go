// Package common defines shared constants and sentinel errors used across
// server and client layers of roomkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed credential).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Join admission outcomes. Every denial returned by the access engine
	// unwraps to exactly one of these.
	ErrRoomNotFound             = errors.New("room not found")
	ErrRateLimited              = errors.New("too many failed attempts")
	ErrIPBlocked                = errors.New("access denied")
	ErrPasswordRequired         = errors.New("room is locked, password required")
	ErrPasswordIncorrect        = errors.New("incorrect password")
	ErrSessionPasswordIncorrect = errors.New("incorrect session password")
	ErrGenderNotAllowed         = errors.New("gender not allowed in this room")
	ErrServerMisconfigured      = errors.New("server misconfigured")
)
