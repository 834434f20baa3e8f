package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/cryptox"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/rooms"
)

// RoomView is the only shape in which a room leaves the server. Password
// hashes and ban lists are never part of it.
type RoomView struct {
	ID                    string              `json:"id"`
	Name                  string              `json:"name"`
	Description           string              `json:"description"`
	Template              models.Template     `json:"template"`
	Creator               string              `json:"creator"`
	CreatedAt             time.Time           `json:"createdAt"`
	Locked                bool                `json:"locked"`
	HasPassword           bool                `json:"hasPassword"`
	HasSessionPassword    bool                `json:"hasSessionPassword"`
	SessionPasswordExpiry *time.Time          `json:"sessionPasswordExpiry,omitempty"`
	Settings              models.RoomSettings `json:"settings"`
	E2EEEnabled           bool                `json:"e2eeEnabled"`
}

// Sanitize projects r onto a RoomView.
func Sanitize(r *models.Room) *RoomView {
	return &RoomView{
		ID:                    r.ID,
		Name:                  r.Name,
		Description:           r.Description,
		Template:              r.Template,
		Creator:               r.Creator,
		CreatedAt:             r.CreatedAt,
		Locked:                r.Locked,
		HasPassword:           r.PasswordHash != "",
		HasSessionPassword:    r.SessionPasswordHash != "",
		SessionPasswordExpiry: r.SessionPasswordExpiry,
		Settings:              r.Settings,
		E2EEEnabled:           r.SecurityConfig != nil && r.SecurityConfig.E2EEEnabled,
	}
}

// CreateRoomInput is a room creation request. Password is plain text.
type CreateRoomInput struct {
	Name        string
	Description string
	Template    models.Template
	Locked      bool
	Password    string
	Creator     string
	IPAddress   string
}

// UpdateRoomInput is a room patch request. Nil fields are left alone;
// Settings is merged over the current settings.
type UpdateRoomInput struct {
	Name        *string
	Description *string
	Template    *models.Template
	Locked      *bool
	Password    *string
	Settings    *SettingsPatch
	ActorName   string
	IPAddress   string
}

// SettingsPatch changes individual room settings.
type SettingsPatch struct {
	AllowedGenders  *[]models.Gender
	RequireHost     *bool
	MaxParticipants *int
}

// RoomListFilter narrows List; zero fields match everything.
type RoomListFilter struct {
	Template models.Template
	Locked   *bool
}

type RoomService struct {
	rooms rooms.Repository
	audit *AuditRecorder
	log   logging.Logger
	now   func() time.Time
	newID func() (string, error)
}

func NewRoomService(repo rooms.Repository, audit *AuditRecorder, log logging.Logger, now func() time.Time) *RoomService {
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms: repo,
		audit: audit,
		log:   log.With("module", "rooms"),
		now:   now,
		newID: func() (string, error) { return common.MakeRandHexString(8) },
	}
}

func (s *RoomService) List(ctx context.Context, f RoomListFilter) ([]*RoomView, error) {
	all, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}

	out := []*RoomView{}
	for _, r := range all {
		if f.Template != "" && r.Template != f.Template {
			continue
		}
		if f.Locked != nil && r.Locked != *f.Locked {
			continue
		}
		out = append(out, Sanitize(r))
	}
	return out, nil
}

func (s *RoomService) Get(ctx context.Context, id string) (*RoomView, error) {
	r, err := s.rooms.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Sanitize(r), nil
}

// Create stores a new room under a random id. Settings come from the
// template. A locked room must be given a password.
func (s *RoomService) Create(ctx context.Context, in CreateRoomInput) (*RoomView, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.Template == "" {
		missing = append(missing, "template")
	}
	if strings.TrimSpace(in.Creator) == "" {
		missing = append(missing, "creator")
	}
	if len(missing) > 0 {
		return nil, invalid("Missing required fields: " + strings.Join(missing, ", "))
	}
	if !in.Template.Valid() {
		return nil, invalid("Invalid template")
	}
	if in.Locked && in.Password == "" {
		return nil, invalid("A locked room requires a password")
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("room id: %w", err)
	}

	room := &models.Room{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Template:    in.Template,
		Creator:     in.Creator,
		CreatedAt:   s.now().UTC(),
		Locked:      in.Locked,
		BlockedIPs:  []models.IPBan{},
		AllowedIPs:  []string{},
		Settings:    in.Template.Settings(),
	}
	if in.Locked {
		room.PasswordHash = cryptox.HashPassword(in.Password)
	}

	created, err := s.rooms.Create(ctx, room)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditLog{
		RoomID:    created.ID,
		Action:    models.ActionRoomCreated,
		ActorName: in.Creator,
		Details:   fmt.Sprintf("Room %q created with template %s", created.Name, created.Template),
		IPAddress: in.IPAddress,
		Metadata:  map[string]any{"template": string(created.Template), "locked": created.Locked},
	})
	s.log.Info(ctx, "room created", "room_id", created.ID, "template", string(created.Template))

	return Sanitize(created), nil
}

// Update applies in and records which fields changed.
func (s *RoomService) Update(ctx context.Context, id string, in UpdateRoomInput) (*RoomView, error) {
	current, err := s.rooms.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var patch models.RoomPatch
	patch.Name = in.Name
	patch.Description = in.Description
	patch.Locked = in.Locked
	if in.Template != nil {
		if !in.Template.Valid() {
			return nil, invalid("Invalid template")
		}
		patch.Template = in.Template
	}
	if in.Password != nil {
		h := ""
		if *in.Password != "" {
			h = cryptox.HashPassword(*in.Password)
		}
		patch.PasswordHash = &h
	}
	if in.Settings != nil {
		merged := current.Settings
		if in.Template != nil {
			merged = in.Template.Settings()
		}
		if in.Settings.AllowedGenders != nil {
			merged.AllowedGenders = append([]models.Gender(nil), (*in.Settings.AllowedGenders)...)
		}
		if in.Settings.RequireHost != nil {
			merged.RequireHost = *in.Settings.RequireHost
		}
		if in.Settings.MaxParticipants != nil {
			n := *in.Settings.MaxParticipants
			merged.MaxParticipants = &n
		}
		patch.Settings = &merged
	} else if in.Template != nil {
		settings := in.Template.Settings()
		patch.Settings = &settings
	}

	if patch.Empty() {
		return Sanitize(current), nil
	}

	updated, err := s.rooms.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	fields := patch.Fields()
	s.audit.Record(ctx, models.AuditLog{
		RoomID:    id,
		Action:    models.ActionRoomUpdated,
		ActorName: in.ActorName,
		Details:   "Room updated: " + strings.Join(fields, ", "),
		IPAddress: in.IPAddress,
		Metadata:  map[string]any{"fields": fields},
	})

	return Sanitize(updated), nil
}

func (s *RoomService) Delete(ctx context.Context, id, actorName, ip string) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditLog{
		RoomID:    id,
		Action:    models.ActionRoomDeleted,
		ActorName: actorName,
		Details:   "Room deleted",
		IPAddress: ip,
	})
	s.log.Info(ctx, "room deleted", "room_id", id)

	return nil
}
