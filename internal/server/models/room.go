// Package models defines the server-side entities persisted by the room and
// audit stores.
package models

import (
	"slices"
	"time"
)

// Room is the protected resource. Only the room store mutates it; everyone
// else goes through a RoomPatch.
type Room struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Template    Template `json:"template"`
	Creator     string   `json:"creator"`

	CreatedAt time.Time `json:"createdAt"`

	Locked       bool   `json:"locked"`
	PasswordHash string `json:"password,omitempty"`

	SessionPasswordHash   string     `json:"sessionPassword,omitempty"`
	SessionPasswordExpiry *time.Time `json:"sessionPasswordExpiry,omitempty"`

	BlockedIPs     []IPBan         `json:"blockedIps"`
	AllowedIPs     []string        `json:"allowedIps"`
	SecurityConfig *SecurityConfig `json:"securityConfig,omitempty"`
	Settings       RoomSettings    `json:"settings"`

	E2EEKey *SealedKey `json:"e2eeKey,omitempty"`
}

// HasActiveSessionPassword reports whether a session password is set and has
// not expired at now. An expired one stays stored until explicitly removed.
func (r *Room) HasActiveSessionPassword(now time.Time) bool {
	if r.SessionPasswordHash == "" {
		return false
	}
	return r.SessionPasswordExpiry == nil || !now.After(*r.SessionPasswordExpiry)
}

// Clone returns a deep copy so callers can never alias store-owned slices.
// Empty and nil lists stay distinct.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.BlockedIPs = slices.Clone(r.BlockedIPs)
	c.AllowedIPs = slices.Clone(r.AllowedIPs)
	c.Settings.AllowedGenders = slices.Clone(r.Settings.AllowedGenders)
	if r.SessionPasswordExpiry != nil {
		t := *r.SessionPasswordExpiry
		c.SessionPasswordExpiry = &t
	}
	if r.SecurityConfig != nil {
		sc := *r.SecurityConfig
		sc.BlockedCountries = slices.Clone(r.SecurityConfig.BlockedCountries)
		c.SecurityConfig = &sc
	}
	if r.E2EEKey != nil {
		k := *r.E2EEKey
		c.E2EEKey = &k
	}
	return &c
}

// SessionPassword replaces or clears a room's session password. An empty Hash
// clears both the hash and the expiry.
type SessionPassword struct {
	Hash   string
	Expiry *time.Time
}

// RoomPatch lists the fields eligible for partial update. Nil fields are
// preserved; there is no way to replace a whole Room through a patch.
type RoomPatch struct {
	Name            *string
	Description     *string
	Template        *Template
	Locked          *bool
	PasswordHash    *string
	SessionPassword *SessionPassword
	BlockedIPs      *[]IPBan
	AllowedIPs      *[]string
	SecurityConfig  *SecurityConfig
	Settings        *RoomSettings
	E2EEKey         *SealedKey
}

// Apply merges the patch into r field by field.
func (p RoomPatch) Apply(r *Room) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Template != nil {
		r.Template = *p.Template
	}
	if p.Locked != nil {
		r.Locked = *p.Locked
	}
	if p.PasswordHash != nil {
		r.PasswordHash = *p.PasswordHash
	}
	if p.SessionPassword != nil {
		r.SessionPasswordHash = p.SessionPassword.Hash
		r.SessionPasswordExpiry = nil
		if p.SessionPassword.Hash != "" && p.SessionPassword.Expiry != nil {
			t := *p.SessionPassword.Expiry
			r.SessionPasswordExpiry = &t
		}
	}
	if p.BlockedIPs != nil {
		r.BlockedIPs = slices.Clone(*p.BlockedIPs)
	}
	if p.AllowedIPs != nil {
		r.AllowedIPs = slices.Clone(*p.AllowedIPs)
	}
	if p.SecurityConfig != nil {
		sc := *p.SecurityConfig
		r.SecurityConfig = &sc
	}
	if p.Settings != nil {
		r.Settings = *p.Settings
	}
	if p.E2EEKey != nil {
		k := *p.E2EEKey
		r.E2EEKey = &k
	}
}

// Fields names the fields the patch touches, in a stable order. Used to
// describe updates in the audit log.
func (p RoomPatch) Fields() []string {
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Description != nil, "description")
	add(p.Template != nil, "template")
	add(p.Locked != nil, "locked")
	add(p.PasswordHash != nil, "password")
	add(p.SessionPassword != nil, "sessionPassword")
	add(p.BlockedIPs != nil, "blockedIps")
	add(p.AllowedIPs != nil, "allowedIps")
	add(p.SecurityConfig != nil, "securityConfig")
	add(p.Settings != nil, "settings")
	add(p.E2EEKey != nil, "e2eeKey")
	return f
}

// Empty reports whether the patch changes nothing.
func (p RoomPatch) Empty() bool {
	return len(p.Fields()) == 0
}
