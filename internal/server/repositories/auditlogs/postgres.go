package auditlogs

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/dbx"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/google/uuid"
)

const auditColumns = `id, room_id, action, actor_name, actor_identity, target_name,
		 details, created_at, ip_address, metadata`

// PostgresRepository stores entries in audit_logs. Ordering uses the seq
// column, so entries written within the same instant still sort by
// insertion.
type PostgresRepository struct {
	db       *sql.DB
	capacity int
	now      func() time.Time
}

func NewPostgresRepository(db *sql.DB, capacity int, now func() time.Time) *PostgresRepository {
	if now == nil {
		now = time.Now
	}
	return &PostgresRepository{db: db, capacity: capacity, now: now}
}

func scanEntry(rows *sql.Rows) (models.AuditLog, error) {
	var (
		e    models.AuditLog
		meta dbx.JSON[map[string]any]
	)
	err := rows.Scan(&e.ID, &e.RoomID, &e.Action, &e.ActorName, &e.ActorIdentity, &e.TargetName,
		&e.Details, &e.Timestamp, &e.IPAddress, &meta)
	if err != nil {
		return e, err
	}
	e.Metadata = meta.V
	return e, nil
}

func collect(rows *sql.Rows) ([]models.AuditLog, error) {
	defer rows.Close()

	out := []models.AuditLog{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Append inserts the entry and trims the table to capacity in one
// transaction; trimmed rows are returned oldest first.
func (r *PostgresRepository) Append(ctx context.Context, entry models.AuditLog) (models.AuditLog, []models.AuditLog, error) {
	insertQuery :=
		`INSERT INTO audit_logs (` + auditColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 `
	trimQuery :=
		`DELETE FROM audit_logs
		 WHERE seq IN (SELECT seq FROM audit_logs ORDER BY seq DESC OFFSET $1)
		 RETURNING ` + auditColumns

	entry.ID = uuid.NewString()
	entry.Timestamp = r.now().UTC()

	var evicted []models.AuditLog
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, insertQuery,
			entry.ID, entry.RoomID, string(entry.Action), entry.ActorName, entry.ActorIdentity,
			entry.TargetName, entry.Details, entry.Timestamp, entry.IPAddress, dbx.JSONOf(entry.Metadata))
		if err != nil {
			return err
		}

		if r.capacity <= 0 {
			return nil
		}
		rows, err := tx.QueryContext(ctx, trimQuery, r.capacity)
		if err != nil {
			return err
		}
		evicted, err = collect(rows)
		return err
	})
	if err != nil {
		return models.AuditLog{}, nil, fmt.Errorf("db error: %w", err)
	}

	// RETURNING order is unspecified.
	sort.SliceStable(evicted, func(i, j int) bool {
		return evicted[i].Timestamp.Before(evicted[j].Timestamp)
	})

	return entry, evicted, nil
}

func (r *PostgresRepository) Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.RoomID != "" {
		add("room_id = $%d", filter.RoomID)
	}
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}
	if filter.ActorName != "" {
		add("strpos(lower(actor_name), lower($%d)) > 0", filter.ActorName)
	}
	if filter.StartTime != nil {
		add("created_at >= $%d", *filter.StartTime)
	}
	if filter.EndTime != nil {
		add("created_at <= $%d", *filter.EndTime)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + auditColumns + ` FROM audit_logs`)
	if len(where) > 0 {
		b.WriteString("\n\t\t WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString("\n\t\t ORDER BY seq DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, "\n\t\t LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	out, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
