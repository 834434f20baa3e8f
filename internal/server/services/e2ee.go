package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/cryptox"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/rooms"
	"github.com/dmitrijs2005/roomkeeper/internal/server/security"
)

const roomKeySize = 32

// KeyManager hands out per-room end-to-end encryption keys. Keys are stored
// sealed under the server master key and replaced once older than the room's
// rotation interval.
type KeyManager struct {
	mu     sync.Mutex
	rooms  rooms.Repository
	master []byte
	log    logging.Logger
	now    func() time.Time
}

func NewKeyManager(repo rooms.Repository, master []byte, log logging.Logger, now func() time.Time) *KeyManager {
	if now == nil {
		now = time.Now
	}
	return &KeyManager{rooms: repo, master: master, log: log.With("module", "e2ee"), now: now}
}

// CurrentKey returns room's key, base64-encoded, rotating it first if it is
// missing or stale. It returns "" when E2EE is off for the room.
func (k *KeyManager) CurrentKey(ctx context.Context, room *models.Room) (string, error) {
	cfg := security.EffectiveConfig(room)
	if !cfg.E2EEEnabled {
		return "", nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	// Re-read under the lock so two joins cannot both rotate.
	fresh, err := k.rooms.Get(ctx, room.ID)
	if err != nil {
		return "", err
	}

	interval := time.Duration(cfg.E2EEKeyRotationInterval) * time.Minute
	now := k.now()

	if sealed := fresh.E2EEKey; sealed != nil && now.Sub(sealed.RotatedAt) < interval {
		key, err := cryptox.Open(sealed.Ciphertext, sealed.Nonce, k.master)
		if err == nil {
			defer common.WipeByteArray(key)
			return base64.StdEncoding.EncodeToString(key), nil
		}
		k.log.Warn(ctx, "stored room key cannot be opened, rotating", "room_id", room.ID, "error", err)
	}

	return k.rotate(ctx, fresh.ID, now)
}

func (k *KeyManager) rotate(ctx context.Context, roomID string, now time.Time) (string, error) {
	key := common.GenerateRandByteArray(roomKeySize)
	defer common.WipeByteArray(key)

	ct, nonce, err := cryptox.Seal(key, k.master)
	if err != nil {
		return "", fmt.Errorf("seal room key: %w", err)
	}

	_, err = k.rooms.Update(ctx, roomID, models.RoomPatch{
		E2EEKey: &models.SealedKey{Ciphertext: ct, Nonce: nonce, RotatedAt: now.UTC()},
	})
	if err != nil {
		return "", err
	}

	k.log.Info(ctx, "room key rotated", "room_id", roomID)
	return base64.StdEncoding.EncodeToString(key), nil
}
