// Package common contains shared constants and sentinel errors used across
// roomkeeper components.
package common

// AuthorizationHeaderName carries the caller's join credential as
// "Bearer <token>" on host-only requests.
const AuthorizationHeaderName = "Authorization"

// DefaultAuditLogCapacity is the number of audit entries retained before the
// oldest are evicted.
const DefaultAuditLogCapacity = 5000

// RoomChannelPrefix prefixes the media channel name derived from a room id.
const RoomChannelPrefix = "room-"
