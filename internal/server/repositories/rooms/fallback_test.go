package rooms

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRepo delegates to an inner store until broken is set.
type flakyRepo struct {
	inner  Repository
	broken bool
	calls  int
}

var errDown = errors.New("connection refused")

func (f *flakyRepo) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	f.calls++
	if f.broken {
		return nil, errDown
	}
	return f.inner.Create(ctx, room)
}

func (f *flakyRepo) Get(ctx context.Context, id string) (*models.Room, error) {
	f.calls++
	if f.broken {
		return nil, errDown
	}
	return f.inner.Get(ctx, id)
}

func (f *flakyRepo) List(ctx context.Context) ([]*models.Room, error) {
	f.calls++
	if f.broken {
		return nil, errDown
	}
	return f.inner.List(ctx)
}

func (f *flakyRepo) Update(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	f.calls++
	if f.broken {
		return nil, errDown
	}
	return f.inner.Update(ctx, id, patch)
}

func (f *flakyRepo) Delete(ctx context.Context, id string) error {
	f.calls++
	if f.broken {
		return errDown
	}
	return f.inner.Delete(ctx, id)
}

func newFallback(primary Repository) *FallbackRepository {
	return NewFallbackRepository(primary, NewMemoryRepository(SeedRooms(created)...), logging.Nop())
}

func TestFallback_HealthyPrimaryServes(t *testing.T) {
	primary := &flakyRepo{inner: NewMemoryRepository()}
	repo := newFallback(primary)
	exercise(t, repo)
	assert.False(t, repo.Degraded(), "not-found and conflict answers must not degrade the store")
}

func TestFallback_DegradesOnceAndStays(t *testing.T) {
	ctx := context.Background()
	primary := &flakyRepo{inner: NewMemoryRepository(sampleRoom("durable"))}
	repo := newFallback(primary)

	var events []error
	repo.OnDegraded(func(err error) { events = append(events, err) })

	got, err := repo.Get(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, "durable", got.ID)

	primary.broken = true

	// The failing call itself is answered from memory.
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.True(t, repo.Degraded())

	_, err = repo.Create(ctx, sampleRoom("mem-only"))
	require.NoError(t, err)

	// Primary recovers, but the store stays on memory.
	primary.broken = false
	calls := primary.calls
	got, err = repo.Get(ctx, "mem-only")
	require.NoError(t, err)
	assert.Equal(t, "mem-only", got.ID)
	assert.Equal(t, calls, primary.calls, "degraded store must not consult the primary")

	_, err = repo.Get(ctx, "durable")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0], errDown)
}

func TestFallback_EveryOperationFallsBack(t *testing.T) {
	ctx := context.Background()

	ops := map[string]func(r *FallbackRepository) error{
		"create": func(r *FallbackRepository) error { _, err := r.Create(ctx, sampleRoom("x")); return err },
		"get":    func(r *FallbackRepository) error { _, err := r.Get(ctx, "community-open"); return err },
		"list":   func(r *FallbackRepository) error { _, err := r.List(ctx); return err },
		"update": func(r *FallbackRepository) error {
			_, err := r.Update(ctx, "community-open", models.RoomPatch{Name: ptr("n")})
			return err
		},
		"delete": func(r *FallbackRepository) error { return r.Delete(ctx, "community-open") },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			repo := newFallback(&flakyRepo{broken: true})
			require.NoError(t, op(repo))
			assert.True(t, repo.Degraded())
		})
	}
}

func TestFallback_NilPrimaryStartsDegraded(t *testing.T) {
	repo := newFallback(nil)
	assert.True(t, repo.Degraded())

	got, err := repo.Get(context.Background(), "sisters-circle")
	require.NoError(t, err)
	assert.Equal(t, models.TemplateSistersOnly, got.Template)
}

func TestFallback_ContextErrorsDoNotDegrade(t *testing.T) {
	repo := newFallback(&ctxRepo{})
	_, err := repo.Get(context.Background(), "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, repo.Degraded())
}

type ctxRepo struct{ flakyRepo }

func (c *ctxRepo) Get(context.Context, string) (*models.Room, error) {
	return nil, context.Canceled
}
