package models

import "time"

// AuditAction classifies an audit entry.
type AuditAction string

const (
	ActionParticipantJoined      AuditAction = "participant_joined"
	ActionJoinDeniedIP           AuditAction = "join_denied_ip"
	ActionJoinDeniedGender       AuditAction = "join_denied_gender"
	ActionPasswordFailed         AuditAction = "password_failed"
	ActionSessionPasswordFailed  AuditAction = "session_password_failed"
	ActionIPBlocked              AuditAction = "ip_blocked"
	ActionIPUnblocked            AuditAction = "ip_unblocked"
	ActionSettingsUpdated        AuditAction = "settings_updated"
	ActionE2EEEnabled            AuditAction = "e2ee_enabled"
	ActionE2EEDisabled           AuditAction = "e2ee_disabled"
	ActionSessionPasswordSet     AuditAction = "session_password_set"
	ActionRoomCreated            AuditAction = "room_created"
	ActionRoomUpdated            AuditAction = "room_updated"
	ActionRoomDeleted            AuditAction = "room_deleted"
	ActionParticipantSpotlighted AuditAction = "participant_spotlighted"
)

// AuditLog is an append-only record of a policy decision or room mutation.
// Once stored it is never modified.
type AuditLog struct {
	ID            string         `json:"id"`
	RoomID        string         `json:"roomId"`
	Action        AuditAction    `json:"action"`
	ActorName     string         `json:"actorName"`
	ActorIdentity string         `json:"actorIdentity,omitempty"`
	TargetName    string         `json:"targetName,omitempty"`
	Details       string         `json:"details"`
	Timestamp     time.Time      `json:"timestamp"`
	IPAddress     string         `json:"ipAddress,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// AuditFilter selects audit entries; zero fields match everything.
type AuditFilter struct {
	RoomID    string
	Action    AuditAction
	ActorName string // case-insensitive substring
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
}

// AuditStats is a derived summary of the audit log.
type AuditStats struct {
	TotalLogs      int                 `json:"totalLogs"`
	ActionCounts   map[AuditAction]int `json:"actionCounts"`
	RecentActivity []AuditLog          `json:"recentActivity"`
}
