package services

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func e2eeRoom(id string) *models.Room {
	r := room(id, models.TemplateOpen)
	cfg := security.DefaultSecurityConfig()
	cfg.E2EEEnabled = true
	cfg.E2EEKeyRotationInterval = 60
	r.SecurityConfig = &cfg
	return r
}

func TestKeyManager_Rotation(t *testing.T) {
	e := newEnv(t, e2eeRoom("r"))
	ctx := context.Background()

	first, err := e.access.Join(ctx, join("r", "Yusuf", models.GenderMale, ""))
	require.NoError(t, err)
	require.NotEmpty(t, first.E2EEKey)
	assert.True(t, first.Room.E2EEEnabled)

	raw, err := base64.StdEncoding.DecodeString(first.E2EEKey)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	stored, err := e.rooms.Get(ctx, "r")
	require.NoError(t, err)
	require.NotNil(t, stored.E2EEKey)
	assert.NotContains(t, string(stored.E2EEKey.Ciphertext), string(raw), "key is stored sealed")

	e.clock.Advance(59 * time.Minute)
	second, err := e.access.Join(ctx, join("r", "Maryam", models.GenderFemale, ""))
	require.NoError(t, err)
	assert.Equal(t, first.E2EEKey, second.E2EEKey, "same key within the interval")

	e.clock.Advance(2 * time.Minute)
	third, err := e.access.Join(ctx, join("r", "Yusuf", models.GenderMale, ""))
	require.NoError(t, err)
	assert.NotEqual(t, first.E2EEKey, third.E2EEKey, "rotated after the interval")
}

func TestKeyManager_Disabled(t *testing.T) {
	e := newEnv(t, room("r", models.TemplateOpen))
	km := NewKeyManager(e.rooms, masterKey, logging.Nop(), e.clock.Now)

	r, err := e.rooms.Get(context.Background(), "r")
	require.NoError(t, err)
	key, err := km.CurrentKey(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestKeyManager_WrongMasterRotates(t *testing.T) {
	e := newEnv(t, e2eeRoom("r"))
	ctx := context.Background()
	r, err := e.rooms.Get(ctx, "r")
	require.NoError(t, err)

	a := NewKeyManager(e.rooms, masterKey, logging.Nop(), e.clock.Now)
	k1, err := a.CurrentKey(ctx, r)
	require.NoError(t, err)

	b := NewKeyManager(e.rooms, []byte("ffffffffffffffffffffffffffffffff"), logging.Nop(), e.clock.Now)
	k2, err := b.CurrentKey(ctx, r)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	k3, err := b.CurrentKey(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, k2, k3)
}
