// Package auditlogs is the append-only, capped audit log store.
package auditlogs

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
)

// Repository appends and queries audit entries.
//
// Append assigns the id and timestamp, stores the entry, and returns it along
// with any entries evicted to keep the store within its cap (oldest first).
// Query returns matching entries newest-first.
type Repository interface {
	Append(ctx context.Context, entry models.AuditLog) (models.AuditLog, []models.AuditLog, error)
	Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// Matches reports whether e satisfies every set field of f. Limit is ignored.
func Matches(f models.AuditFilter, e models.AuditLog) bool {
	if f.RoomID != "" && e.RoomID != f.RoomID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ActorName != "" && !strings.Contains(strings.ToLower(e.ActorName), strings.ToLower(f.ActorName)) {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}
