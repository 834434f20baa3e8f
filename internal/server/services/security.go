package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/cryptox"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/rooms"
	"github.com/dmitrijs2005/roomkeeper/internal/server/security"
)

// SecurityAction names a host operation on a room's security settings.
type SecurityAction string

const (
	ActionBlockIP               SecurityAction = "block_ip"
	ActionUnblockIP             SecurityAction = "unblock_ip"
	ActionCleanExpiredBans      SecurityAction = "clean_expired_bans"
	ActionAddAllowedIP          SecurityAction = "add_allowed_ip"
	ActionRemoveAllowedIP       SecurityAction = "remove_allowed_ip"
	ActionUpdateSecurityConfig  SecurityAction = "update_security_config"
	ActionSetSessionPassword    SecurityAction = "set_session_password"
	ActionRemoveSessionPassword SecurityAction = "remove_session_password"
)

const noReason = "No reason provided"

// SecurityRequest is one security action. Which payload fields are read
// depends on Action.
type SecurityRequest struct {
	Action    SecurityAction
	ActorName string
	ClientIP  string

	IP        string
	Reason    string
	ExpiresAt *time.Time

	SecurityConfig *models.SecurityConfigPatch

	Password      string
	ExpiryMinutes int
}

// SecurityResult is the outcome of a successful action.
type SecurityResult struct {
	Success        bool                   `json:"success"`
	Message        string                 `json:"message"`
	Ban            *models.IPBan          `json:"ban,omitempty"`
	RemovedCount   *int                   `json:"removedCount,omitempty"`
	SecurityConfig *models.SecurityConfig `json:"securityConfig,omitempty"`
	ExpiresAt      *time.Time             `json:"expiresAt,omitempty"`
}

// BanView is a ban as shown to hosts.
type BanView struct {
	IP        string     `json:"ip"`
	Reason    string     `json:"reason"`
	BannedAt  time.Time  `json:"bannedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// SecurityInfo is the host view of a room's security state. Expired bans are
// left out.
type SecurityInfo struct {
	BlockedIPs            []BanView             `json:"blockedIps"`
	AllowedIPs            []string              `json:"allowedIps"`
	HasSessionPassword    bool                  `json:"hasSessionPassword"`
	SessionPasswordExpiry *time.Time            `json:"sessionPasswordExpiry,omitempty"`
	SecurityConfig        models.SecurityConfig `json:"securityConfig"`
}

type SecurityService struct {
	rooms rooms.Repository
	audit *AuditRecorder
	log   logging.Logger
	now   func() time.Time
}

func NewSecurityService(repo rooms.Repository, audit *AuditRecorder, log logging.Logger, now func() time.Time) *SecurityService {
	if now == nil {
		now = time.Now
	}
	return &SecurityService{rooms: repo, audit: audit, log: log.With("module", "security"), now: now}
}

func (s *SecurityService) Info(ctx context.Context, roomID string) (*SecurityInfo, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	bans := security.CleanExpiredBans(room.BlockedIPs, s.now())
	views := make([]BanView, 0, len(bans))
	for _, b := range bans {
		views = append(views, BanView{IP: b.IP, Reason: b.Reason, BannedAt: b.BannedAt, ExpiresAt: b.ExpiresAt})
	}
	allowed := room.AllowedIPs
	if allowed == nil {
		allowed = []string{}
	}

	return &SecurityInfo{
		BlockedIPs:            views,
		AllowedIPs:            allowed,
		HasSessionPassword:    room.SessionPasswordHash != "",
		SessionPasswordExpiry: room.SessionPasswordExpiry,
		SecurityConfig:        security.EffectiveConfig(room),
	}, nil
}

// Apply performs req against the room and records it in the audit log.
func (s *SecurityService) Apply(ctx context.Context, roomID string, req SecurityRequest) (*SecurityResult, error) {
	if strings.TrimSpace(req.ActorName) == "" {
		return nil, invalid("Actor name is required")
	}

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var res *SecurityResult
	switch req.Action {
	case ActionBlockIP:
		res, err = s.blockIP(ctx, room, req)
	case ActionUnblockIP:
		res, err = s.unblockIP(ctx, room, req)
	case ActionCleanExpiredBans:
		res, err = s.cleanExpiredBans(ctx, room, req)
	case ActionAddAllowedIP:
		res, err = s.addAllowedIP(ctx, room, req)
	case ActionRemoveAllowedIP:
		res, err = s.removeAllowedIP(ctx, room, req)
	case ActionUpdateSecurityConfig:
		res, err = s.updateConfig(ctx, room, req)
	case ActionSetSessionPassword:
		res, err = s.setSessionPassword(ctx, room, req)
	case ActionRemoveSessionPassword:
		res, err = s.removeSessionPassword(ctx, room, req)
	default:
		return nil, invalid("Invalid action")
	}
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "security action applied", "room_id", room.ID, "action", string(req.Action), "actor", req.ActorName)
	return res, nil
}

func (s *SecurityService) record(ctx context.Context, room *models.Room, req SecurityRequest, action models.AuditAction, target, details string, meta map[string]any) {
	s.audit.Record(ctx, models.AuditLog{
		RoomID:     room.ID,
		Action:     action,
		ActorName:  req.ActorName,
		TargetName: target,
		Details:    details,
		IPAddress:  req.ClientIP,
		Metadata:   meta,
	})
}

func (s *SecurityService) blockIP(ctx context.Context, room *models.Room, req SecurityRequest) (*SecurityResult, error) {
	if req.IP == "" || !security.IsValidIP(req.IP) {
		return nil, invalid("Valid IP address is required")
	}
	for _, b := range room.BlockedIPs {
		if b.IP == req.IP {
			return nil, invalid("IP is already blocked")
		}
	}

	reason := req.Reason
	if reason == "" {
		reason = noReason
	}
	ban := models.IPBan{IP: req.IP, Reason: reason, BannedAt: s.now().UTC(), BannedBy: req.ActorName, ExpiresAt: req.ExpiresAt}
	bans := append(append([]models.IPBan(nil), room.BlockedIPs...), ban)

	if _, err := s.rooms.Update(ctx, room.ID, models.RoomPatch{BlockedIPs: &bans}); err != nil {
		return nil, err
	}

	meta := map[string]any{"blockedIp": req.IP, "reason": req.Reason}
	if req.ExpiresAt != nil {
		meta["expiresAt"] = req.ExpiresAt.UnixMilli()
	}
	s.record(ctx, room, req, models.ActionIPBlocked, req.IP, fmt.Sprintf("IP %s blocked. Reason: %s", req.IP, reason), meta)

	return &SecurityResult{Success: true, Message: "IP blocked successfully", Ban: &ban}, nil
}

func (s *SecurityService) unblockIP(ctx context.Context, room *models.Room, req SecurityRequest) (*SecurityResult, error) {
	if req.IP == "" || !security.IsValidIP(req.IP) {
		return nil, invalid("Valid IP address is required")
	}

	bans := make([]models.IPBan, 0, len(room.BlockedIPs))
	for _, b := range room.BlockedIPs {
		if b.IP != req.IP {
			bans = append(bans, b)
		}
	}
	if len(bans) == len(room.BlockedIPs) {
		return nil, &NotFoundError{Message: "IP is not blocked"}
	}

	if _, err := s.rooms.Update(ctx, room.ID, models.RoomPatch{BlockedIPs: &bans}); err != nil {
		return nil, err
	}
	s.record(ctx, room, req, models.ActionIPUnblocked, req.IP, fmt.Sprintf("IP %s unblocked", req.IP),
		map[string]any{"unblockedIp": req.IP})

	return &SecurityResult{Success: true, Message: "IP unblocked successfully"}, nil
}

func (s *SecurityService) cleanExpiredBans(ctx context.Context, room *models.Room, req SecurityRequest) (*SecurityResult, error) {
	cleaned := security.CleanExpiredBans(room.BlockedIPs, s.now())
	removed := len(room.BlockedIPs) - len(cleaned)

	if removed > 0 {
		if _, err := s.rooms.Update(ctx, room.ID, models.RoomPatch{BlockedIPs: &cleaned}); err != nil {
			return nil, err
		}
		s.record(ctx, room, req, models.ActionSettingsUpdated, "", fmt.Sprintf("Cleaned %d expired IP ban(s)", removed), nil)
	}

	return &SecurityResult{Success: true, Message: fmt.Sprintf("Removed %d expired ban(s)", removed), RemovedCount: &removed}, nil
}

func (s *SecurityService) addAllowedIP(ctx context.Context, room *models.Room, req SecurityRequest) (*SecurityResult, error) {
	if req.IP == "" || !security.IsValidIP(req.IP) {
		return nil, invalid("Valid IP address is required")
	}
	for _, ip := range room.AllowedIPs {
		if ip == req.IP {
			return nil, invalid("IP is already whitelisted")
		}
	}

	allowed := append(append([]string(nil), room.AllowedIPs...), req.IP)
	if _, err := s.rooms.Update(ctx, room.ID, models.RoomPatch{AllowedIPs: &allowed}); err != nil {
		return nil, err
	}
	s.record(ctx, room, req, models.ActionSettingsUpdated, "", fmt.Sprintf("IP %s added to whitelist", req.IP),
		map[string]any{"whitelistedIp": req.IP})

	return &SecurityResult{Success: true, Message: "IP whitelisted successfully"}, nil
}

func (s *SecurityService) removeAllowedIP(ctx context.Context, room *models.Room, req SecurityRequest) (*SecurityResult, error) {
	if req.IP == "" {
		return nil, invalid("IP address is required")
	}

	allowed := make([]string, 0, len(room.AllowedIPs))
	for _, ip := range room.AllowedIPs {
		if ip != req.IP {
			allowed = append(allowed, ip)
		}
	}
	if len(allowed) == len(room.AllowedIPs) {
		return nil, &NotFoundError{Message: "IP is not in whitelist"}
	}

	if _, err := s.rooms.Update(ctx, room.ID, models.RoomPatch{AllowedIPs: &allowed}); err != nil {
		return nil, err
	}
	s.record(ctx, room, req, models.ActionSettingsUpdated, "", fmt.Sprintf("IP %s removed from whitelist", req.IP),
		map[string]any{"removedIp": req.IP})

	return &SecurityResult{Success: true, Message: "IP removed from whitelist"}, nil
}

func (s *SecurityService) updateConfig(ctx context.Context, room *models.Room, req SecurityRequest) (*SecurityResult, error) {
	if req.SecurityConfig == nil {
		return nil, invalid("Security configuration is required")
	}
	if v := security.ValidateSecurityConfig(*req.SecurityConfig); !v.Valid {
		return nil, invalid("Invalid security configuration", v.Errors...)
	}

	merged := req.SecurityConfig.Apply(security.EffectiveConfig(room))
	if _, err := s.rooms.Update(ctx, room.ID, models.RoomPatch{SecurityConfig: &merged}); err != nil {
		return nil, err
	}

	if on := req.SecurityConfig.E2EEEnabled; on != nil {
		action, word := models.ActionE2EEDisabled, "disabled"
		if *on {
			action, word = models.ActionE2EEEnabled, "enabled"
		}
		s.record(ctx, room, req, action, "", "End-to-end encryption "+word, nil)
	}
	s.record(ctx, room, req, models.ActionSettingsUpdated, "", "Security configuration updated",
		map[string]any{"securityConfig": *req.SecurityConfig})

	return &SecurityResult{Success: true, Message: "Security configuration updated", SecurityConfig: &merged}, nil
}

func (s *SecurityService) setSessionPassword(ctx context.Context, room *models.Room, req SecurityRequest) (*SecurityResult, error) {
	if req.Password == "" {
		return nil, invalid("Password is required")
	}

	sp := &models.SessionPassword{Hash: cryptox.HashPassword(req.Password)}
	details := "Session password set (no expiry)"
	if req.ExpiryMinutes > 0 {
		t := s.now().Add(time.Duration(req.ExpiryMinutes) * time.Minute).UTC()
		sp.Expiry = &t
		details = fmt.Sprintf("Session password set with %d minute(s) expiry", req.ExpiryMinutes)
	}

	if _, err := s.rooms.Update(ctx, room.ID, models.RoomPatch{SessionPassword: sp}); err != nil {
		return nil, err
	}
	s.record(ctx, room, req, models.ActionSessionPasswordSet, "", details,
		map[string]any{"expiryMinutes": req.ExpiryMinutes})

	return &SecurityResult{Success: true, Message: "Session password set successfully", ExpiresAt: sp.Expiry}, nil
}

func (s *SecurityService) removeSessionPassword(ctx context.Context, room *models.Room, req SecurityRequest) (*SecurityResult, error) {
	if _, err := s.rooms.Update(ctx, room.ID, models.RoomPatch{SessionPassword: &models.SessionPassword{}}); err != nil {
		return nil, err
	}
	s.record(ctx, room, req, models.ActionSettingsUpdated, "", "Session password removed", nil)

	return &SecurityResult{Success: true, Message: "Session password removed"}, nil
}
