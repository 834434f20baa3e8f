package auditlogs

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps at most capacity entries in insertion order.
type MemoryRepository struct {
	mu       sync.Mutex
	entries  []models.AuditLog
	capacity int
	now      func() time.Time
}

// NewMemoryRepository returns a store capped at capacity entries. now
// defaults to time.Now.
func NewMemoryRepository(capacity int, now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{capacity: capacity, now: now}
}

func (r *MemoryRepository) Append(_ context.Context, entry models.AuditLog) (models.AuditLog, []models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = uuid.NewString()
	entry.Timestamp = r.now()
	// Timestamps never run backwards within the store, so newest-first by
	// time agrees with insertion order.
	if n := len(r.entries); n > 0 && entry.Timestamp.Before(r.entries[n-1].Timestamp) {
		entry.Timestamp = r.entries[n-1].Timestamp
	}
	r.entries = append(r.entries, entry)

	var evicted []models.AuditLog
	if over := len(r.entries) - r.capacity; r.capacity > 0 && over > 0 {
		evicted = append(evicted, r.entries[:over]...)
		r.entries = append([]models.AuditLog(nil), r.entries[over:]...)
	}

	return entry, evicted, nil
}

func (r *MemoryRepository) Query(_ context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.AuditLog{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if !Matches(filter, r.entries[i]) {
			continue
		}
		out = append(out, r.entries[i])
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
