package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/cryptox"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, e *testEnv, req SecurityRequest) (*SecurityResult, error) {
	t.Helper()
	if req.ActorName == "" {
		req.ActorName = "Imam"
	}
	return e.security.Apply(context.Background(), "r", req)
}

func TestSecurity_BlockAndUnblock(t *testing.T) {
	e := newEnv(t, room("r", models.TemplateOpen))

	res, err := apply(t, e, SecurityRequest{Action: ActionBlockIP, IP: clientIP})
	require.NoError(t, err)
	require.NotNil(t, res.Ban)
	assert.Equal(t, "No reason provided", res.Ban.Reason)
	assert.Equal(t, "Imam", res.Ban.BannedBy)

	_, err = apply(t, e, SecurityRequest{Action: ActionBlockIP, IP: clientIP})
	assert.ErrorIs(t, err, common.ErrorValidation, "duplicate ban")

	_, err = e.access.Join(context.Background(), join("r", "Yusuf", models.GenderMale, ""))
	requireDenial(t, err, common.ErrIPBlocked)

	_, err = apply(t, e, SecurityRequest{Action: ActionUnblockIP, IP: clientIP})
	require.NoError(t, err)
	_, err = apply(t, e, SecurityRequest{Action: ActionUnblockIP, IP: clientIP})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.access.Join(context.Background(), join("r", "Yusuf", models.GenderMale, ""))
	require.NoError(t, err)

	assert.Len(t, e.audits(t, models.ActionIPBlocked), 1)
	assert.Len(t, e.audits(t, models.ActionIPUnblocked), 1)
}

func TestSecurity_BlockRejectsBadIP(t *testing.T) {
	e := newEnv(t, room("r", models.TemplateOpen))

	for _, ip := range []string{"", "1.2.3", "not-an-ip"} {
		_, err := apply(t, e, SecurityRequest{Action: ActionBlockIP, IP: ip})
		assert.ErrorIs(t, err, common.ErrorValidation, ip)
	}
}

func TestSecurity_CleanExpiredBans(t *testing.T) {
	past := epoch.Add(-time.Minute)
	future := epoch.Add(time.Hour)
	r := room("r", models.TemplateOpen)
	r.BlockedIPs = []models.IPBan{
		{IP: "10.0.0.1", ExpiresAt: &past},
		{IP: "10.0.0.2", ExpiresAt: &future},
		{IP: "10.0.0.3"},
	}
	e := newEnv(t, r)

	info, err := e.security.Info(context.Background(), "r")
	require.NoError(t, err)
	assert.Len(t, info.BlockedIPs, 2, "expired bans are hidden")

	res, err := apply(t, e, SecurityRequest{Action: ActionCleanExpiredBans})
	require.NoError(t, err)
	require.NotNil(t, res.RemovedCount)
	assert.Equal(t, 1, *res.RemovedCount)

	stored, err := e.rooms.Get(context.Background(), "r")
	require.NoError(t, err)
	assert.Len(t, stored.BlockedIPs, 2)

	res, err = apply(t, e, SecurityRequest{Action: ActionCleanExpiredBans})
	require.NoError(t, err)
	assert.Equal(t, 0, *res.RemovedCount)
}

func TestSecurity_AllowList(t *testing.T) {
	e := newEnv(t, room("r", models.TemplateOpen))

	_, err := apply(t, e, SecurityRequest{Action: ActionAddAllowedIP, IP: "198.51.100.1"})
	require.NoError(t, err)
	_, err = apply(t, e, SecurityRequest{Action: ActionAddAllowedIP, IP: "198.51.100.1"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = e.access.Join(context.Background(), join("r", "Yusuf", models.GenderMale, ""))
	require.NoError(t, err, "an unlisted, unbanned address is still admitted")

	_, err = apply(t, e, SecurityRequest{Action: ActionBlockIP, ActorName: "Imam", IP: clientIP, Reason: "spam"})
	require.NoError(t, err)
	_, err = e.access.Join(context.Background(), join("r", "Yusuf", models.GenderMale, ""))
	requireDenial(t, err, common.ErrIPBlocked)

	_, err = apply(t, e, SecurityRequest{Action: ActionAddAllowedIP, IP: clientIP})
	require.NoError(t, err)
	_, err = e.access.Join(context.Background(), join("r", "Yusuf", models.GenderMale, ""))
	require.NoError(t, err, "allowlisting a banned address admits it")

	_, err = apply(t, e, SecurityRequest{Action: ActionRemoveAllowedIP, IP: clientIP})
	require.NoError(t, err)
	_, err = apply(t, e, SecurityRequest{Action: ActionRemoveAllowedIP, IP: "198.51.100.1"})
	require.NoError(t, err)
	_, err = apply(t, e, SecurityRequest{Action: ActionRemoveAllowedIP, IP: "198.51.100.1"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	info, err := e.security.Info(context.Background(), "r")
	require.NoError(t, err)
	assert.Empty(t, info.AllowedIPs)
	assert.Len(t, info.BlockedIPs, 1)
}

func TestSecurity_UpdateConfig(t *testing.T) {
	e := newEnv(t, room("r", models.TemplateOpen))

	res, err := apply(t, e, SecurityRequest{
		Action:         ActionUpdateSecurityConfig,
		SecurityConfig: &models.SecurityConfigPatch{E2EEEnabled: ptr(true), MaxLoginAttempts: ptr(3)},
	})
	require.NoError(t, err)
	require.NotNil(t, res.SecurityConfig)
	assert.True(t, res.SecurityConfig.E2EEEnabled)
	assert.Equal(t, 3, res.SecurityConfig.MaxLoginAttempts)
	assert.Equal(t, 15, res.SecurityConfig.LockoutDuration, "unset fields keep defaults")

	assert.Len(t, e.audits(t, models.ActionE2EEEnabled), 1)
	assert.Len(t, e.audits(t, models.ActionSettingsUpdated), 1)

	_, err = apply(t, e, SecurityRequest{
		Action:         ActionUpdateSecurityConfig,
		SecurityConfig: &models.SecurityConfigPatch{MaxLoginAttempts: ptr(0), LockoutDuration: ptr(0)},
	})
	require.ErrorIs(t, err, common.ErrorValidation)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Details, 2)

	_, err = apply(t, e, SecurityRequest{Action: ActionUpdateSecurityConfig})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestSecurity_SessionPassword(t *testing.T) {
	e := newEnv(t, room("r", models.TemplateOpen))
	ctx := context.Background()

	_, err := apply(t, e, SecurityRequest{Action: ActionSetSessionPassword})
	assert.ErrorIs(t, err, common.ErrorValidation)

	res, err := apply(t, e, SecurityRequest{Action: ActionSetSessionPassword, Password: "today", ExpiryMinutes: 30})
	require.NoError(t, err)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, epoch.Add(30*time.Minute), *res.ExpiresAt)

	stored, err := e.rooms.Get(ctx, "r")
	require.NoError(t, err)
	assert.True(t, cryptox.VerifyPassword("today", stored.SessionPasswordHash))

	_, err = e.access.Join(ctx, join("r", "Yusuf", models.GenderMale, ""))
	requireDenial(t, err, common.ErrPasswordRequired)

	e.clock.Advance(31 * time.Minute)
	_, err = e.access.Join(ctx, join("r", "Yusuf", models.GenderMale, ""))
	require.NoError(t, err, "expired session password no longer applies")

	_, err = apply(t, e, SecurityRequest{Action: ActionRemoveSessionPassword})
	require.NoError(t, err)
	info, err := e.security.Info(ctx, "r")
	require.NoError(t, err)
	assert.False(t, info.HasSessionPassword)
	assert.Nil(t, info.SessionPasswordExpiry)

	assert.Len(t, e.audits(t, models.ActionSessionPasswordSet), 1)
}

func TestSecurity_Errors(t *testing.T) {
	e := newEnv(t, room("r", models.TemplateOpen))

	_, err := e.security.Apply(context.Background(), "r", SecurityRequest{Action: ActionBlockIP, IP: clientIP})
	assert.EqualError(t, err, "Actor name is required")

	_, err = apply(t, e, SecurityRequest{Action: "reboot"})
	assert.EqualError(t, err, "Invalid action")

	_, err = e.security.Apply(context.Background(), "missing", SecurityRequest{Action: ActionBlockIP, ActorName: "x"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.security.Info(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSecurity_InfoDefaults(t *testing.T) {
	e := newEnv(t, room("r", models.TemplateOpen))

	info, err := e.security.Info(context.Background(), "r")
	require.NoError(t, err)
	assert.Equal(t, 5, info.SecurityConfig.MaxLoginAttempts)
	assert.Equal(t, 60, info.SecurityConfig.E2EEKeyRotationInterval)
	assert.NotNil(t, info.BlockedIPs)
	assert.NotNil(t, info.AllowedIPs)
}
