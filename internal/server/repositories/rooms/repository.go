// Package rooms is the room record store. Implementations never hand out
// references to their internal state: every returned *models.Room is a copy.
package rooms

import (
	"context"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
)

// Repository persists rooms.
//
// Create fails with common.ErrorAlreadyExists when the id is taken. Get,
// Update and Delete fail with common.ErrorNotFound for unknown ids. Update
// merges the supplied patch fields over the stored record.
type Repository interface {
	Create(ctx context.Context, room *models.Room) (*models.Room, error)
	Get(ctx context.Context, id string) (*models.Room, error)
	List(ctx context.Context) ([]*models.Room, error)
	Update(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error)
	Delete(ctx context.Context, id string) error
}
