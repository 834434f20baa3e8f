package services

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
)

// DenialError is a join refusal. Kind is one of the common.Err* admission
// sentinels and is what errors.Is matches against.
type DenialError struct {
	Kind error
	// LockedUntil is set for common.ErrRateLimited.
	LockedUntil time.Time
	// Reason is the ban reason for common.ErrIPBlocked. It is for logs and
	// hosts only and must not be shown to the rejected participant.
	Reason string
	// Template is set for common.ErrGenderNotAllowed.
	Template models.Template
}

func (e *DenialError) Error() string {
	return e.Kind.Error()
}

func (e *DenialError) Unwrap() error {
	return e.Kind
}

// AsDenial extracts a *DenialError from err.
func AsDenial(err error) (*DenialError, bool) {
	var d *DenialError
	ok := errors.As(err, &d)
	return d, ok
}

// ValidationError is a bad request. It matches common.ErrorValidation.
type ValidationError struct {
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return common.ErrorValidation
}

func invalid(msg string, details ...string) error {
	return &ValidationError{Message: msg, Details: details}
}

// NotFoundError is a missing resource with a caller-facing message. It
// matches common.ErrorNotFound.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return common.ErrorNotFound
}
