package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/netx"
	"github.com/dmitrijs2005/roomkeeper/internal/participant"
	"github.com/dmitrijs2005/roomkeeper/internal/server/auth"
	"github.com/dmitrijs2005/roomkeeper/internal/server/livekit"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParticipants struct {
	meta      map[string]string
	getErr    error
	updateErr error
}

func (f *fakeParticipants) GetParticipant(_ context.Context, _, identity string) (*livekit.ParticipantInfo, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.meta[identity]
	if !ok {
		return nil, &netx.StatusError{StatusCode: 404, Status: "404 Not Found"}
	}
	return &livekit.ParticipantInfo{Identity: identity, Metadata: m}, nil
}

func (f *fakeParticipants) UpdateParticipantMetadata(_ context.Context, _, identity, metadata string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.meta[identity] = metadata
	return nil
}

func newSpotlightEnv(t *testing.T) (*testEnv, *SpotlightService, *fakeParticipants, *auth.Signer) {
	t.Helper()
	e := newEnv(t, room("r", models.TemplateOpen))
	signer, err := auth.NewSigner("key", "secret", time.Hour)
	require.NoError(t, err)
	api := &fakeParticipants{meta: map[string]string{"Maryam": `{"gender":"female","isHost":false}`}}
	svc := NewSpotlightService(api, signer, e.rooms, e.recorder, logging.Nop())
	return e, svc, api, signer
}

func credential(t *testing.T, s *auth.Signer, channel string, m participant.Metadata) string {
	t.Helper()
	meta, err := m.Encode()
	require.NoError(t, err)
	tok, err := s.JoinToken("Imam", "Imam", channel, meta)
	require.NoError(t, err)
	return tok
}

func TestSpotlight_HostToggles(t *testing.T) {
	e, svc, api, signer := newSpotlightEnv(t)
	cred := credential(t, signer, "room-r", participant.Metadata{Gender: "host", IsHost: true})

	err := svc.Set(context.Background(), SpotlightRequest{Channel: "room-r", ParticipantIdentity: "Maryam", IsSpotlighted: true, Credential: cred})
	require.NoError(t, err)

	p := participant.Parse(api.meta["Maryam"])
	require.True(t, p.OK)
	assert.Equal(t, participant.Metadata{Gender: "female", IsSpotlighted: true}, p.Metadata)

	spot := e.audits(t, models.ActionParticipantSpotlighted)
	require.Len(t, spot, 1)
	assert.Equal(t, "Maryam", spot[0].TargetName)
	assert.Equal(t, "Imam", spot[0].ActorName)

	err = svc.Set(context.Background(), SpotlightRequest{Channel: "room-r", ParticipantIdentity: "Maryam", Credential: cred})
	require.NoError(t, err)
	assert.False(t, participant.Parse(api.meta["Maryam"]).Metadata.IsSpotlighted)
}

func TestSpotlight_DefaultChannelNotAudited(t *testing.T) {
	e, svc, _, signer := newSpotlightEnv(t)
	cred := credential(t, signer, "lobby", participant.Metadata{Gender: "host", IsHost: true})

	err := svc.Set(context.Background(), SpotlightRequest{Channel: "lobby", ParticipantIdentity: "Maryam", IsSpotlighted: true, Credential: cred})
	require.NoError(t, err)
	assert.Empty(t, e.audits(t, models.ActionParticipantSpotlighted))
}

func TestSpotlight_Authorization(t *testing.T) {
	_, svc, _, signer := newSpotlightEnv(t)
	other, err := auth.NewSigner("key", "other-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name string
		cred string
		want error
	}{
		{"garbage", "not-a-token", common.ErrorUnauthorized},
		{"foreign signature", credential(t, other, "room-r", participant.Metadata{Gender: "host", IsHost: true}), common.ErrorUnauthorized},
		{"not a host", credential(t, signer, "room-r", participant.Metadata{Gender: "male"}), common.ErrorForbidden},
		{"other channel", credential(t, signer, "room-x", participant.Metadata{Gender: "host", IsHost: true}), common.ErrorForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Set(context.Background(), SpotlightRequest{Channel: "room-r", ParticipantIdentity: "Maryam", IsSpotlighted: true, Credential: tt.cred})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSpotlight_Errors(t *testing.T) {
	_, svc, api, signer := newSpotlightEnv(t)
	cred := credential(t, signer, "room-r", participant.Metadata{Gender: "host", IsHost: true})
	ctx := context.Background()

	err := svc.Set(ctx, SpotlightRequest{Channel: "room-r", Credential: cred})
	assert.ErrorIs(t, err, common.ErrorValidation)

	err = svc.Set(ctx, SpotlightRequest{Channel: "room-r", ParticipantIdentity: "ghost", Credential: cred})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	api.updateErr = errors.New("media down")
	err = svc.Set(ctx, SpotlightRequest{Channel: "room-r", ParticipantIdentity: "Maryam", Credential: cred})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	unconfigured := NewSpotlightService(nil, nil, nil, nil, logging.Nop())
	err = unconfigured.Set(ctx, SpotlightRequest{Channel: "room-r", ParticipantIdentity: "Maryam", Credential: cred})
	assert.ErrorIs(t, err, common.ErrServerMisconfigured)
}
