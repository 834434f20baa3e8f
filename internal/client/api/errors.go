package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/netx"
)

var ErrUnavailable = errors.New("server unavailable")

// Error is a failure answered by the server. Kind carries the server's
// error category, e.g. "PasswordIncorrect" or "RateLimited".
type Error struct {
	StatusCode  int        `json:"-"`
	Kind        string     `json:"errorKind"`
	Detail      string     `json:"detail"`
	Details     []string   `json:"details"`
	LockedUntil *time.Time `json:"lockedUntil"`
}

func (e *Error) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	if e.Detail == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (c *Client) mapError(err error) error {
	var se *netx.StatusError
	if errors.As(err, &se) {
		e := &Error{StatusCode: se.StatusCode}
		_ = json.Unmarshal(se.Body, e)
		return e
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
