package services

import (
	"fmt"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/participant"
	"github.com/dmitrijs2005/roomkeeper/internal/server/auth"
)

// HostAuthorizer admits callers presenting their own join credential for a
// channel with host metadata. It guards every host-only operation: spotlight,
// security settings and the audit trail.
type HostAuthorizer struct {
	verifier TokenVerifier
}

// NewHostAuthorizer returns an authorizer that refuses every call with
// common.ErrServerMisconfigured when verifier is nil.
func NewHostAuthorizer(verifier TokenVerifier) *HostAuthorizer {
	return &HostAuthorizer{verifier: verifier}
}

// Authorize checks credential against channel. A missing or unverifiable
// credential is unauthorized; a valid one for another channel or without
// host metadata is forbidden.
func (a *HostAuthorizer) Authorize(credential, channel string) (*auth.JoinClaims, error) {
	if a == nil || a.verifier == nil {
		return nil, fmt.Errorf("%w: credential verification is not configured", common.ErrServerMisconfigured)
	}
	if credential == "" {
		return nil, fmt.Errorf("%w: credential required", common.ErrorUnauthorized)
	}
	claims, err := a.verifier.Parse(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	if claims.Video == nil || claims.Video.Room != channel {
		return nil, fmt.Errorf("%w: credential is for another channel", common.ErrorForbidden)
	}
	meta := participant.Parse(claims.Metadata)
	if !meta.OK || !meta.Metadata.IsHost {
		return nil, fmt.Errorf("%w: host credential required", common.ErrorForbidden)
	}
	return claims, nil
}
