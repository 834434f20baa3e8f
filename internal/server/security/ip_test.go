package security

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestIsValidIP(t *testing.T) {
	valid := []string{
		"1.2.3.4",
		"192.168.0.254",
		"999.999.999.999", // octet ranges are not checked
		"2001:0db8:85a3:0000:0000:8a2e:0370:7334",
		"fe80:0:0:0:0:0:0:1",
	}
	invalid := []string{
		"",
		"1.2.3",
		"1.2.3.4.5",
		"a.b.c.d",
		"1.2.3.4 ",
		"::1",
		"2001:db8::1",
		"fe80:0:0:0:0:0:0:0:1",
		"localhost",
	}
	for _, ip := range valid {
		assert.True(t, IsValidIP(ip), ip)
	}
	for _, ip := range invalid {
		assert.False(t, IsValidIP(ip), ip)
	}
}

func TestCleanExpiredBans(t *testing.T) {
	bans := []models.IPBan{
		{IP: "1.1.1.1"},
		{IP: "2.2.2.2", ExpiresAt: at(-time.Minute)},
		{IP: "3.3.3.3", ExpiresAt: at(time.Minute)},
		{IP: "4.4.4.4", ExpiresAt: at(0)},
	}

	once := CleanExpiredBans(bans, now)
	assert.Equal(t, []string{"1.1.1.1", "3.3.3.3"}, ips(once))
	assert.Len(t, bans, 4, "input must not be modified")

	twice := CleanExpiredBans(once, now)
	assert.Equal(t, once, twice, "cleaning is idempotent")

	assert.Empty(t, CleanExpiredBans(nil, now))
}

func ips(bans []models.IPBan) []string {
	out := make([]string, 0, len(bans))
	for _, b := range bans {
		out = append(out, b.IP)
	}
	return out
}

func TestIsIPBlocked(t *testing.T) {
	bans := []models.IPBan{
		{IP: "1.2.3.4", Reason: "spam"},
		{IP: "5.6.7.8", Reason: "old", ExpiresAt: at(-time.Hour)},
		{IP: "9.9.9.9", Reason: "temp", ExpiresAt: at(time.Hour)},
	}

	tests := []struct {
		name  string
		ip    string
		allow []string
		want  BlockResult
	}{
		{"active ban", "1.2.3.4", nil, BlockResult{Blocked: true, Reason: "spam"}},
		{"expired ban is inert", "5.6.7.8", nil, BlockResult{}},
		{"temporary ban", "9.9.9.9", nil, BlockResult{Blocked: true, Reason: "temp"}},
		{"not listed", "7.7.7.7", nil, BlockResult{}},
		{"allowlist overrides ban", "1.2.3.4", []string{"1.2.3.4"}, BlockResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIPBlocked(tt.ip, bans, tt.allow, now))
		})
	}
}

func TestIsIPBlocked_AllowlistMonotonic(t *testing.T) {
	bans := []models.IPBan{{IP: "1.2.3.4", Reason: "x"}, {IP: "2.2.2.2", Reason: "y"}}
	candidates := []string{"1.2.3.4", "2.2.2.2", "3.3.3.3"}

	var allow []string
	for _, add := range candidates {
		before := map[string]bool{}
		for _, ip := range candidates {
			before[ip] = IsIPBlocked(ip, bans, allow, now).Blocked
		}
		allow = append(allow, add)
		for _, ip := range candidates {
			after := IsIPBlocked(ip, bans, allow, now).Blocked
			if after {
				assert.True(t, before[ip], "adding %s to allowlist must never block %s", add, ip)
			}
		}
		assert.False(t, IsIPBlocked(add, bans, allow, now).Blocked)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		trust   bool
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": " 10.0.0.1 , 10.0.0.2"}, "1.1.1.1:5000", true, "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.3"}, "1.1.1.1:5000", true, "10.0.0.3"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "10.0.0.4"}, "1.1.1.1:5000", true, "10.0.0.4"},
		{"remote addr", nil, "1.1.1.1:5000", true, "1.1.1.1"},
		{"headers ignored when untrusted", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "1.1.1.1:5000", false, "1.1.1.1"},
		{"remote without port", nil, "2.2.2.2", false, "2.2.2.2"},
		{"nothing at all", nil, "", false, "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/join", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ExtractClientIP(r, tt.trust))
		})
	}
}
