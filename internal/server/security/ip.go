// Package security holds the room policy primitives: IP ban evaluation,
// login-attempt throttling and security-config defaults/validation. Apart
// from the attempt stores everything here is pure.
package security

import (
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
)

var (
	ipv4Pattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	// full eight-group form only; "::" compression is rejected
	ipv6Pattern = regexp.MustCompile(`^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`)
)

// IsValidIP accepts dotted-quad IPv4 or uncompressed eight-group IPv6.
// Octet ranges are not checked. Compressed IPv6 is rejected so ban and
// allow lists only ever hold one spelling per address.
func IsValidIP(ip string) bool {
	return ipv4Pattern.MatchString(ip) || ipv6Pattern.MatchString(ip)
}

// CleanExpiredBans returns the bans that have no expiry or expire after now.
// The input slice is not modified.
func CleanExpiredBans(bans []models.IPBan, now time.Time) []models.IPBan {
	kept := make([]models.IPBan, 0, len(bans))
	for _, b := range bans {
		if b.ExpiresAt == nil || b.ExpiresAt.After(now) {
			kept = append(kept, b)
		}
	}
	return kept
}

// BlockResult is the outcome of IsIPBlocked. Reason is meant for hosts and
// the audit log, never for the rejected client.
type BlockResult struct {
	Blocked bool
	Reason  string
}

// IsIPBlocked checks ip against the room's lists. Membership in allowlist
// wins over any ban; otherwise the first matching ban that has not expired
// blocks.
func IsIPBlocked(ip string, bans []models.IPBan, allowlist []string, now time.Time) BlockResult {
	for _, a := range allowlist {
		if a == ip {
			return BlockResult{}
		}
	}
	for _, b := range bans {
		if b.IP != ip || b.ExpiredAt(now) {
			continue
		}
		return BlockResult{Blocked: true, Reason: b.Reason}
	}
	return BlockResult{}
}

// ExtractClientIP returns the caller's address. With trustProxy set, the
// first X-Forwarded-For hop, X-Real-IP and CF-Connecting-IP are consulted in
// that order before falling back to the connection's remote address.
func ExtractClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
			return real
		}
		if cf := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cf != "" {
			return cf
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "127.0.0.1"
	}
	return host
}
