package rooms

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
)

// MemoryRepository keeps rooms in a map. It serves the "memory" storage
// driver and the degraded tier of FallbackRepository.
type MemoryRepository struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
	order []string
}

// NewMemoryRepository returns a store holding copies of seed.
func NewMemoryRepository(seed ...*models.Room) *MemoryRepository {
	r := &MemoryRepository{rooms: make(map[string]*models.Room, len(seed))}
	for _, room := range seed {
		if _, ok := r.rooms[room.ID]; ok {
			continue
		}
		r.rooms[room.ID] = room.Clone()
		r.order = append(r.order, room.ID)
	}
	return r
}

func (r *MemoryRepository) Create(_ context.Context, room *models.Room) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	r.rooms[room.ID] = room.Clone()
	r.order = append(r.order, room.ID)
	return room.Clone(), nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return room.Clone(), nil
}

// List returns rooms in insertion order.
func (r *MemoryRepository) List(_ context.Context) ([]*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Room, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rooms[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	updated := room.Clone()
	patch.Apply(updated)
	r.rooms[id] = updated
	return updated.Clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.rooms, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// SeedRooms is the fixed room set served when no durable store is reachable:
// one unlocked room per template, sorted by id.
func SeedRooms(now time.Time) []*models.Room {
	seed := []struct {
		id, name, desc string
		tpl            models.Template
	}{
		{"brothers-halaqa", "Brothers Halaqa", "Weekly study circle for brothers", models.TemplateBrothersOnly},
		{"community-open", "Community Open Room", "General gathering, open to all", models.TemplateOpen},
		{"family-night", "Family Night", "Mixed session, a host must be present", models.TemplateMixedHostRequired},
		{"sisters-circle", "Sisters Circle", "Weekly study circle for sisters", models.TemplateSistersOnly},
	}

	out := make([]*models.Room, 0, len(seed))
	for _, s := range seed {
		out = append(out, &models.Room{
			ID:          s.id,
			Name:        s.name,
			Description: s.desc,
			Template:    s.tpl,
			Creator:     "system",
			CreatedAt:   now,
			BlockedIPs:  []models.IPBan{},
			AllowedIPs:  []string{},
			Settings:    s.tpl.Settings(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
