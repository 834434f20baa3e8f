package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/dbx"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const roomColumns = `id, name, description, template, creator, created_at, locked,
		 password_hash, session_password_hash, session_password_expiry,
		 blocked_ips, allowed_ips, security_config, settings, e2ee_key`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var (
		room     models.Room
		expiry   sql.NullTime
		blocked  dbx.JSON[[]models.IPBan]
		allowed  dbx.JSON[[]string]
		secCfg   dbx.JSON[*models.SecurityConfig]
		settings dbx.JSON[models.RoomSettings]
		key      dbx.JSON[*models.SealedKey]
	)

	err := row.Scan(&room.ID, &room.Name, &room.Description, &room.Template, &room.Creator,
		&room.CreatedAt, &room.Locked, &room.PasswordHash, &room.SessionPasswordHash, &expiry,
		&blocked, &allowed, &secCfg, &settings, &key)
	if err != nil {
		return nil, err
	}

	if expiry.Valid {
		t := expiry.Time
		room.SessionPasswordExpiry = &t
	}
	room.BlockedIPs = blocked.V
	if room.BlockedIPs == nil {
		room.BlockedIPs = []models.IPBan{}
	}
	room.AllowedIPs = allowed.V
	if room.AllowedIPs == nil {
		room.AllowedIPs = []string{}
	}
	room.SecurityConfig = secCfg.V
	room.Settings = settings.V
	room.E2EEKey = key.V

	return &room, nil
}

func roomArgs(room *models.Room) []any {
	var expiry sql.NullTime
	if room.SessionPasswordExpiry != nil {
		expiry = sql.NullTime{Time: *room.SessionPasswordExpiry, Valid: true}
	}
	blocked := room.BlockedIPs
	if blocked == nil {
		blocked = []models.IPBan{}
	}
	allowed := room.AllowedIPs
	if allowed == nil {
		allowed = []string{}
	}
	return []any{
		room.ID, room.Name, room.Description, string(room.Template), room.Creator,
		room.CreatedAt, room.Locked, room.PasswordHash, room.SessionPasswordHash, expiry,
		dbx.JSONOf(blocked), dbx.JSONOf(allowed), dbx.JSONOf(room.SecurityConfig),
		dbx.JSONOf(room.Settings), dbx.JSONOf(room.E2EEKey),
	}
}

func (r *PostgresRepository) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	query :=
		`INSERT INTO rooms (` + roomColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 `

	c := room.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query, roomArgs(c)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Room, error) {
	query :=
		`SELECT ` + roomColumns + ` FROM rooms
		 WHERE id = $1
		 `

	room, err := scanRoom(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return room, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Room, error) {
	query :=
		`SELECT ` + roomColumns + ` FROM rooms
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

// Update locks the row, merges the patch in Go and writes the full record
// back, so concurrent patches to different fields of one room cannot lose
// each other's changes.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	selectQuery :=
		`SELECT ` + roomColumns + ` FROM rooms
		 WHERE id = $1
		 FOR UPDATE
		 `
	updateQuery :=
		`UPDATE rooms SET name = $2, description = $3, template = $4, creator = $5,
		 created_at = $6, locked = $7, password_hash = $8, session_password_hash = $9,
		 session_password_expiry = $10, blocked_ips = $11, allowed_ips = $12,
		 security_config = $13, settings = $14, e2ee_key = $15
		 WHERE id = $1
		 `

	var updated *models.Room
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		room, err := scanRoom(tx.QueryRowContext(ctx, selectQuery, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return err
		}

		patch.Apply(room)

		if _, err := tx.ExecContext(ctx, updateQuery, roomArgs(room)...); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM rooms
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
