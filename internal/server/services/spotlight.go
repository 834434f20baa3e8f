package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/netx"
	"github.com/dmitrijs2005/roomkeeper/internal/participant"
	"github.com/dmitrijs2005/roomkeeper/internal/server/auth"
	"github.com/dmitrijs2005/roomkeeper/internal/server/livekit"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/rooms"
)

// ParticipantAPI reads and rewrites participant metadata on the media server.
type ParticipantAPI interface {
	GetParticipant(ctx context.Context, channel, identity string) (*livekit.ParticipantInfo, error)
	UpdateParticipantMetadata(ctx context.Context, channel, identity, metadata string) error
}

// TokenVerifier checks a caller's own join credential.
type TokenVerifier interface {
	Parse(token string) (*auth.JoinClaims, error)
}

// SpotlightRequest toggles one participant's spotlight. Credential is the
// caller's join token; only hosts of the same channel may spotlight.
type SpotlightRequest struct {
	Channel             string
	ParticipantIdentity string
	IsSpotlighted       bool
	Credential          string
	ClientIP            string
}

type SpotlightService struct {
	api      ParticipantAPI
	verifier TokenVerifier
	hosts    *HostAuthorizer
	rooms    rooms.Repository
	audit    *AuditRecorder
	log      logging.Logger
}

// NewSpotlightService returns a service that refuses every call with
// common.ErrServerMisconfigured when api or verifier is nil.
func NewSpotlightService(api ParticipantAPI, verifier TokenVerifier, repo rooms.Repository, audit *AuditRecorder, log logging.Logger) *SpotlightService {
	return &SpotlightService{api: api, verifier: verifier, hosts: NewHostAuthorizer(verifier), rooms: repo, audit: audit, log: log.With("module", "spotlight")}
}

func (s *SpotlightService) Set(ctx context.Context, req SpotlightRequest) error {
	if req.Channel == "" || req.ParticipantIdentity == "" {
		return invalid("Missing required fields")
	}
	if s.api == nil || s.verifier == nil {
		return fmt.Errorf("%w: media server is not configured", common.ErrServerMisconfigured)
	}

	claims, err := s.hosts.Authorize(req.Credential, req.Channel)
	if err != nil {
		return err
	}

	info, err := s.api.GetParticipant(ctx, req.Channel, req.ParticipantIdentity)
	if err != nil {
		return mapMediaError(err)
	}

	meta, err := participant.WithSpotlight(info.Metadata, req.IsSpotlighted)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := s.api.UpdateParticipantMetadata(ctx, req.Channel, req.ParticipantIdentity, meta); err != nil {
		return mapMediaError(err)
	}

	if roomID, ok := strings.CutPrefix(req.Channel, common.RoomChannelPrefix); ok {
		if _, err := s.rooms.Get(ctx, roomID); err == nil {
			state := "removed from spotlight"
			if req.IsSpotlighted {
				state = "spotlighted"
			}
			s.audit.Record(ctx, models.AuditLog{
				RoomID:        roomID,
				Action:        models.ActionParticipantSpotlighted,
				ActorName:     claims.Name,
				ActorIdentity: claims.Subject,
				TargetName:    req.ParticipantIdentity,
				Details:       fmt.Sprintf("%s %s", req.ParticipantIdentity, state),
				IPAddress:     req.ClientIP,
				Metadata:      map[string]any{"isSpotlighted": req.IsSpotlighted},
			})
		}
	}

	s.log.Info(ctx, "spotlight updated", "channel", req.Channel, "participant", req.ParticipantIdentity, "on", req.IsSpotlighted)
	return nil
}

func mapMediaError(err error) error {
	var se *netx.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return &NotFoundError{Message: "Participant not found"}
	}
	return fmt.Errorf("media server: %w", err)
}
