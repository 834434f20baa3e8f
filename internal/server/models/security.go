package models

import (
	"slices"
	"time"
)

// IPBan blocks one address from joining a room. A ban whose ExpiresAt lies in
// the past is inert.
type IPBan struct {
	IP        string     `json:"ip"`
	Reason    string     `json:"reason"`
	BannedAt  time.Time  `json:"bannedAt"`
	BannedBy  string     `json:"bannedBy"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ExpiredAt reports whether the ban has lapsed at now.
func (b IPBan) ExpiredAt(now time.Time) bool {
	return b.ExpiresAt != nil && b.ExpiresAt.Before(now)
}

// SecurityConfig governs lockout thresholds and feature flags of a room.
// Durations are expressed in minutes.
type SecurityConfig struct {
	E2EEEnabled                 bool     `json:"e2eeEnabled"`
	E2EEKeyRotationInterval     int      `json:"e2eeKeyRotationInterval"`
	RequireVerifiedParticipants bool     `json:"requireVerifiedParticipants"`
	MaxLoginAttempts            int      `json:"maxLoginAttempts"`
	LockoutDuration             int      `json:"lockoutDuration"`
	GeoBlockEnabled             bool     `json:"geoBlockEnabled"`
	BlockedCountries            []string `json:"blockedCountries"`
}

// SecurityConfigPatch lists the fields of SecurityConfig a host may change.
// Nil fields are left untouched.
type SecurityConfigPatch struct {
	E2EEEnabled                 *bool     `json:"e2eeEnabled,omitempty"`
	E2EEKeyRotationInterval     *int      `json:"e2eeKeyRotationInterval,omitempty"`
	RequireVerifiedParticipants *bool     `json:"requireVerifiedParticipants,omitempty"`
	MaxLoginAttempts            *int      `json:"maxLoginAttempts,omitempty"`
	LockoutDuration             *int      `json:"lockoutDuration,omitempty"`
	GeoBlockEnabled             *bool     `json:"geoBlockEnabled,omitempty"`
	BlockedCountries            *[]string `json:"blockedCountries,omitempty"`
}

// Apply merges p over c and returns the result.
func (p SecurityConfigPatch) Apply(c SecurityConfig) SecurityConfig {
	if p.E2EEEnabled != nil {
		c.E2EEEnabled = *p.E2EEEnabled
	}
	if p.E2EEKeyRotationInterval != nil {
		c.E2EEKeyRotationInterval = *p.E2EEKeyRotationInterval
	}
	if p.RequireVerifiedParticipants != nil {
		c.RequireVerifiedParticipants = *p.RequireVerifiedParticipants
	}
	if p.MaxLoginAttempts != nil {
		c.MaxLoginAttempts = *p.MaxLoginAttempts
	}
	if p.LockoutDuration != nil {
		c.LockoutDuration = *p.LockoutDuration
	}
	if p.GeoBlockEnabled != nil {
		c.GeoBlockEnabled = *p.GeoBlockEnabled
	}
	if p.BlockedCountries != nil {
		c.BlockedCountries = slices.Clone(*p.BlockedCountries)
	}
	return c
}

// SealedKey is a room E2EE key encrypted under the server master key.
type SealedKey struct {
	Ciphertext []byte    `json:"ciphertext"`
	Nonce      []byte    `json:"nonce"`
	RotatedAt  time.Time `json:"rotatedAt"`
}
