package rooms

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
)

// FallbackRepository is the two-tier room store. Calls go to the durable
// primary until it fails with an infrastructure error; from then on the
// store is degraded and every call, including the failed one, is served by
// an in-memory tier seeded with SeedRooms. Degraded mode is sticky for the
// life of the process, so writes accepted in memory are never shadowed by a
// primary that comes back with older data.
type FallbackRepository struct {
	primary  Repository
	memory   *MemoryRepository
	log      logging.Logger
	degraded atomic.Bool

	onDegraded func(error)
}

// NewFallbackRepository wraps primary. A nil primary starts degraded, which
// is how the server runs when the durable store could not be opened at all.
func NewFallbackRepository(primary Repository, memory *MemoryRepository, log logging.Logger) *FallbackRepository {
	r := &FallbackRepository{
		primary: primary,
		memory:  memory,
		log:     log.With("module", "rooms"),
	}
	if primary == nil {
		r.degraded.Store(true)
	}
	return r
}

// OnDegraded registers fn to be called once, with the triggering error, when
// the store switches to memory. Must be set before the store is used.
func (r *FallbackRepository) OnDegraded(fn func(error)) {
	r.onDegraded = fn
}

// Degraded reports whether writes are currently memory-only.
func (r *FallbackRepository) Degraded() bool {
	return r.degraded.Load()
}

// passThrough reports whether err is an answer from the primary rather than
// a failure of it.
func passThrough(err error) bool {
	return errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorAlreadyExists) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// fail switches the store to memory on the first primary failure.
func (r *FallbackRepository) fail(ctx context.Context, err error) {
	if !r.degraded.CompareAndSwap(false, true) {
		return
	}
	r.log.Warn(ctx, "durable room store unavailable, serving rooms from memory; writes will not survive a restart", "error", err)
	if r.onDegraded != nil {
		r.onDegraded(err)
	}
}

func (r *FallbackRepository) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	if !r.Degraded() {
		out, err := r.primary.Create(ctx, room)
		if err == nil || passThrough(err) {
			return out, err
		}
		r.fail(ctx, err)
	}
	return r.memory.Create(ctx, room)
}

func (r *FallbackRepository) Get(ctx context.Context, id string) (*models.Room, error) {
	if !r.Degraded() {
		out, err := r.primary.Get(ctx, id)
		if err == nil || passThrough(err) {
			return out, err
		}
		r.fail(ctx, err)
	}
	return r.memory.Get(ctx, id)
}

func (r *FallbackRepository) List(ctx context.Context) ([]*models.Room, error) {
	if !r.Degraded() {
		out, err := r.primary.List(ctx)
		if err == nil || passThrough(err) {
			return out, err
		}
		r.fail(ctx, err)
	}
	return r.memory.List(ctx)
}

func (r *FallbackRepository) Update(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	if !r.Degraded() {
		out, err := r.primary.Update(ctx, id, patch)
		if err == nil || passThrough(err) {
			return out, err
		}
		r.fail(ctx, err)
	}
	return r.memory.Update(ctx, id, patch)
}

func (r *FallbackRepository) Delete(ctx context.Context, id string) error {
	if !r.Degraded() {
		err := r.primary.Delete(ctx, id)
		if err == nil || passThrough(err) {
			return err
		}
		r.fail(ctx, err)
	}
	return r.memory.Delete(ctx, id)
}
