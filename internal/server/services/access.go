package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/cryptox"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/participant"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/rooms"
	"github.com/dmitrijs2005/roomkeeper/internal/server/security"
)

// TokenSigner mints join credentials.
type TokenSigner interface {
	JoinToken(identity, name, channel, metadata string) (string, error)
}

// JoinRequest is one attempt to enter a room. An empty RoomID asks for the
// default, unrestricted channel. An empty Password means none was supplied.
type JoinRequest struct {
	RoomID          string
	ParticipantName string
	Gender          models.Gender
	IsHost          bool
	Password        string
	ClientIP        string
}

// JoinResult is returned on admission. Room is nil for the default channel;
// E2EEKey is set only when the room has end-to-end encryption enabled.
type JoinResult struct {
	Token     string    `json:"credential"`
	Channel   string    `json:"channel"`
	ServerURL string    `json:"serverUrl,omitempty"`
	Room      *RoomView `json:"room,omitempty"`
	E2EEKey   string    `json:"e2eeKey,omitempty"`
}

// ChannelName is the media channel a room's participants meet in.
func ChannelName(roomID string) string {
	return common.RoomChannelPrefix + roomID
}

// AccessService decides join requests.
type AccessService struct {
	rooms          rooms.Repository
	attempts       security.AttemptStore
	audit          *AuditRecorder
	keys           *KeyManager
	signer         TokenSigner
	log            logging.Logger
	now            func() time.Time
	defaultChannel string
	serverURL      string
}

// AccessOptions carries the optional collaborators of AccessService. A nil
// Signer makes every join fail with common.ErrServerMisconfigured.
type AccessOptions struct {
	Signer         TokenSigner
	Keys           *KeyManager
	DefaultChannel string
	ServerURL      string
	Now            func() time.Time
}

func NewAccessService(repo rooms.Repository, attempts security.AttemptStore, audit *AuditRecorder, log logging.Logger, opts AccessOptions) *AccessService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AccessService{
		rooms:          repo,
		attempts:       attempts,
		audit:          audit,
		keys:           opts.Keys,
		signer:         opts.Signer,
		log:            log.With("module", "access"),
		now:            now,
		defaultChannel: opts.DefaultChannel,
		serverURL:      opts.ServerURL,
	}
}

func validGender(g models.Gender) bool {
	return g == models.GenderMale || g == models.GenderFemale || g == models.GenderHost
}

func (s *AccessService) validate(req JoinRequest) error {
	var problems []string
	if strings.TrimSpace(req.ParticipantName) == "" {
		problems = append(problems, "participantName is required")
	}
	if !validGender(req.Gender) && !(req.IsHost && req.Gender == "") {
		problems = append(problems, "gender must be one of male, female, host")
	}
	if len(problems) > 0 {
		return invalid("Invalid join request", problems...)
	}
	return nil
}

// Join runs the admission checks in order: room lookup, rate limit, IP
// block, room password, session password, gender. The first failing check
// decides the outcome.
func (s *AccessService) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if s.signer == nil {
		s.log.Error(ctx, "join refused: no credential signer configured")
		return nil, &DenialError{Kind: common.ErrServerMisconfigured}
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	if req.RoomID == "" {
		token, err := s.mint(req, s.defaultChannel)
		if err != nil {
			return nil, err
		}
		return &JoinResult{Token: token, Channel: s.defaultChannel, ServerURL: s.serverURL}, nil
	}

	room, err := s.rooms.Get(ctx, req.RoomID)
	if err != nil {
		if isNotFound(err) {
			return nil, &DenialError{Kind: common.ErrRoomNotFound}
		}
		return nil, err
	}

	now := s.now()
	cfg := security.EffectiveConfig(room)

	if d := s.checkRateLimit(ctx, req, cfg, now); d != nil {
		return nil, d
	}

	if block := security.IsIPBlocked(req.ClientIP, room.BlockedIPs, room.AllowedIPs, now); block.Blocked {
		s.audit.Record(ctx, models.AuditLog{
			RoomID:    room.ID,
			Action:    models.ActionJoinDeniedIP,
			ActorName: req.ParticipantName,
			Details:   fmt.Sprintf("Join denied for blocked IP %s", req.ClientIP),
			IPAddress: req.ClientIP,
			Metadata:  map[string]any{"reason": block.Reason},
		})
		s.log.Warn(ctx, "join denied", "room_id", room.ID, "ip", req.ClientIP, "reason", "ip_blocked")
		return nil, &DenialError{Kind: common.ErrIPBlocked, Reason: block.Reason}
	}

	if room.Locked {
		if req.Password == "" {
			return nil, &DenialError{Kind: common.ErrPasswordRequired}
		}
		if !cryptox.VerifyPassword(req.Password, room.PasswordHash) {
			return nil, s.passwordFailure(ctx, room, req, now, models.ActionPasswordFailed, common.ErrPasswordIncorrect)
		}
	} else if room.HasActiveSessionPassword(now) {
		// A locked room never reaches this branch, so its session password
		// is not checked. Kept as is pending a product decision.
		// As with the room password, a missing password is PasswordRequired
		// and records no failed attempt.
		if req.Password == "" {
			return nil, &DenialError{Kind: common.ErrPasswordRequired}
		}
		if !cryptox.VerifyPassword(req.Password, room.SessionPasswordHash) {
			return nil, s.passwordFailure(ctx, room, req, now, models.ActionSessionPasswordFailed, common.ErrSessionPasswordIncorrect)
		}
	}

	effective := req.Gender
	if req.IsHost {
		effective = models.GenderHost
	}
	if !room.Settings.Allows(effective) {
		s.audit.Record(ctx, models.AuditLog{
			RoomID:    room.ID,
			Action:    models.ActionJoinDeniedGender,
			ActorName: req.ParticipantName,
			Details:   fmt.Sprintf("Join denied: %s participants are not allowed in %s room", effective, room.Template),
			IPAddress: req.ClientIP,
			Metadata:  map[string]any{"template": string(room.Template), "gender": string(effective)},
		})
		s.log.Warn(ctx, "join denied", "room_id", room.ID, "ip", req.ClientIP, "reason", "gender_not_allowed")
		return nil, &DenialError{Kind: common.ErrGenderNotAllowed, Template: room.Template}
	}

	return s.admit(ctx, room, req)
}

func (s *AccessService) checkRateLimit(ctx context.Context, req JoinRequest, cfg models.SecurityConfig, now time.Time) *DenialError {
	prior, err := s.attempts.Get(ctx, req.ClientIP)
	if err != nil {
		// Throttling is skipped rather than locking every client out while
		// the attempt store is unreachable.
		s.log.Error(ctx, "attempt store read failed", "ip", req.ClientIP, "error", err)
		return nil
	}

	res := security.CheckRateLimiting(prior, now, cfg.MaxLoginAttempts, cfg.LockoutDuration)
	if res.Stale {
		if err := s.attempts.Clear(ctx, req.ClientIP); err != nil {
			s.log.Error(ctx, "attempt store clear failed", "ip", req.ClientIP, "error", err)
		}
	}
	if !res.Allowed {
		s.log.Warn(ctx, "join denied", "room_id", req.RoomID, "ip", req.ClientIP, "reason", "rate_limited",
			"locked_until", res.LockedUntil)
		return &DenialError{Kind: common.ErrRateLimited, LockedUntil: res.LockedUntil}
	}
	return nil
}

func (s *AccessService) passwordFailure(ctx context.Context, room *models.Room, req JoinRequest, now time.Time, action models.AuditAction, kind error) error {
	a, err := s.attempts.RecordFailure(ctx, req.ClientIP, now)
	if err != nil {
		s.log.Error(ctx, "attempt store write failed", "ip", req.ClientIP, "error", err)
	}

	what := "room password"
	if action == models.ActionSessionPasswordFailed {
		what = "session password"
	}
	s.audit.Record(ctx, models.AuditLog{
		RoomID:    room.ID,
		Action:    action,
		ActorName: req.ParticipantName,
		Details:   fmt.Sprintf("Incorrect %s from %s", what, req.ClientIP),
		IPAddress: req.ClientIP,
		Metadata:  map[string]any{"attempts": a.Count},
	})
	s.log.Warn(ctx, "join denied", "room_id", room.ID, "ip", req.ClientIP, "reason", string(action))

	return &DenialError{Kind: kind}
}

func (s *AccessService) mint(req JoinRequest, channel string) (string, error) {
	gender := string(req.Gender)
	if gender == "" {
		gender = participant.GenderHost
	}
	meta, err := participant.Metadata{Gender: gender, IsHost: req.IsHost}.Encode()
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	token, err := s.signer.JoinToken(req.ParticipantName, req.ParticipantName, channel, meta)
	if err != nil {
		return "", fmt.Errorf("sign join token: %w", err)
	}
	return token, nil
}

func (s *AccessService) admit(ctx context.Context, room *models.Room, req JoinRequest) (*JoinResult, error) {
	if err := s.attempts.Clear(ctx, req.ClientIP); err != nil {
		s.log.Error(ctx, "attempt store clear failed", "ip", req.ClientIP, "error", err)
	}

	channel := ChannelName(room.ID)
	token, err := s.mint(req, channel)
	if err != nil {
		return nil, err
	}

	res := &JoinResult{Token: token, Channel: channel, ServerURL: s.serverURL, Room: Sanitize(room)}

	if s.keys != nil {
		key, err := s.keys.CurrentKey(ctx, room)
		if err != nil {
			return nil, fmt.Errorf("room key: %w", err)
		}
		res.E2EEKey = key
	}

	s.audit.Record(ctx, models.AuditLog{
		RoomID:        room.ID,
		Action:        models.ActionParticipantJoined,
		ActorName:     req.ParticipantName,
		ActorIdentity: req.ParticipantName,
		Details:       fmt.Sprintf("%s joined the room", req.ParticipantName),
		IPAddress:     req.ClientIP,
		Metadata:      map[string]any{"gender": string(req.Gender), "isHost": req.IsHost},
	})
	s.log.Info(ctx, "participant joined", "room_id", room.ID, "ip", req.ClientIP)

	return res, nil
}
