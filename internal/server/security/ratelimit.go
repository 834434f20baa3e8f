package security

import (
	"context"
	"sync"
	"time"
)

// Attempt is the failed-login record kept per client IP.
type Attempt struct {
	Count       int
	LastAttempt time.Time
}

// RateLimitResult is the outcome of CheckRateLimiting.
type RateLimitResult struct {
	Allowed           bool
	RemainingAttempts int
	// LockedUntil is set only when Allowed is false.
	LockedUntil time.Time
	// Stale is set when a prior record had outlived the lockout window; the
	// caller should clear it from the store.
	Stale bool
}

// CheckRateLimiting decides whether a client with the prior record (nil when
// none) may attempt to join at now.
func CheckRateLimiting(prior *Attempt, now time.Time, maxAttempts, lockoutMinutes int) RateLimitResult {
	if prior == nil {
		return RateLimitResult{Allowed: true, RemainingAttempts: maxAttempts}
	}

	window := time.Duration(lockoutMinutes) * time.Minute
	if now.Sub(prior.LastAttempt) > window {
		return RateLimitResult{Allowed: true, RemainingAttempts: maxAttempts, Stale: true}
	}

	if prior.Count >= maxAttempts {
		return RateLimitResult{LockedUntil: prior.LastAttempt.Add(window)}
	}

	return RateLimitResult{Allowed: true, RemainingAttempts: maxAttempts - prior.Count}
}

// AttemptStore keeps failed-attempt records outside the room entity. Memory
// backs a single instance; redis shares the state across instances.
// Implementations must make RecordFailure atomic per key.
type AttemptStore interface {
	// Get returns the record for ip, or nil when there is none.
	Get(ctx context.Context, ip string) (*Attempt, error)
	// RecordFailure increments (or creates) the record for ip.
	RecordFailure(ctx context.Context, ip string, at time.Time) (Attempt, error)
	// Clear deletes the record for ip.
	Clear(ctx context.Context, ip string) error
}

// MemoryAttemptStore is an AttemptStore over a mutex-guarded map.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]Attempt
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string]Attempt)}
}

func (s *MemoryAttemptStore) Get(_ context.Context, ip string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[ip]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *MemoryAttemptStore) RecordFailure(_ context.Context, ip string, at time.Time) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.attempts[ip]
	a.Count++
	a.LastAttempt = at
	s.attempts[ip] = a
	return a, nil
}

func (s *MemoryAttemptStore) Clear(_ context.Context, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, ip)
	return nil
}
