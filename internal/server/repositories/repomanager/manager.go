package repomanager

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/rooms"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Rooms(db *sql.DB) rooms.Repository
	AuditLogs(db *sql.DB, capacity int, now func() time.Time) auditlogs.Repository
}
