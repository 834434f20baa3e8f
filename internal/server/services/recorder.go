package services

import (
	"context"

	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/auditlogs"
)

// AuditRecorder appends audit entries on behalf of the other services and
// forwards evicted entries to the archiver, if any. Recording never fails the
// operation being audited; store errors are logged.
type AuditRecorder struct {
	repo     auditlogs.Repository
	archiver auditlogs.Archiver
	log      logging.Logger
}

func NewAuditRecorder(repo auditlogs.Repository, archiver auditlogs.Archiver, log logging.Logger) *AuditRecorder {
	return &AuditRecorder{repo: repo, archiver: archiver, log: log.With("module", "audit")}
}

func (r *AuditRecorder) Record(ctx context.Context, entry models.AuditLog) {
	_, evicted, err := r.repo.Append(ctx, entry)
	if err != nil {
		r.log.Error(ctx, "audit append failed", "room_id", entry.RoomID, "action", string(entry.Action), "error", err)
		return
	}
	if len(evicted) == 0 || r.archiver == nil {
		return
	}
	if err := r.archiver.Archive(ctx, evicted); err != nil {
		r.log.Error(ctx, "audit archive failed", "entries", len(evicted), "error", err)
	}
}
