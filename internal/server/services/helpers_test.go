package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/cryptox"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/rooms"
	"github.com/dmitrijs2005/roomkeeper/internal/server/security"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock { return &fakeClock{t: epoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type signCall struct {
	identity, name, channel, metadata string
}

type stubSigner struct {
	mu    sync.Mutex
	calls []signCall
	err   error
}

func (s *stubSigner) JoinToken(identity, name, channel, metadata string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.calls = append(s.calls, signCall{identity, name, channel, metadata})
	return "token-for-" + channel, nil
}

func (s *stubSigner) last() signCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type fakeArchiver struct {
	mu      sync.Mutex
	batches [][]models.AuditLog
}

func (a *fakeArchiver) Archive(_ context.Context, entries []models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.batches = append(a.batches, entries)
	return nil
}

type testEnv struct {
	clock    *fakeClock
	rooms    *rooms.MemoryRepository
	logs     *auditlogs.MemoryRepository
	attempts *security.MemoryAttemptStore
	signer   *stubSigner
	recorder *AuditRecorder
	access   *AccessService
	roomSvc  *RoomService
	security *SecurityService
}

func newEnv(t *testing.T, seed ...*models.Room) *testEnv {
	t.Helper()
	e := &testEnv{
		clock:    newClock(),
		rooms:    rooms.NewMemoryRepository(seed...),
		attempts: security.NewMemoryAttemptStore(),
		signer:   &stubSigner{},
	}
	e.logs = auditlogs.NewMemoryRepository(100, e.clock.Now)
	e.recorder = NewAuditRecorder(e.logs, nil, logging.Nop())
	e.access = NewAccessService(e.rooms, e.attempts, e.recorder, logging.Nop(), AccessOptions{
		Signer:         e.signer,
		Keys:           NewKeyManager(e.rooms, masterKey, logging.Nop(), e.clock.Now),
		DefaultChannel: "lobby",
		ServerURL:      "wss://media.example",
		Now:            e.clock.Now,
	})
	e.roomSvc = NewRoomService(e.rooms, e.recorder, logging.Nop(), e.clock.Now)
	e.security = NewSecurityService(e.rooms, e.recorder, logging.Nop(), e.clock.Now)
	return e
}

func (e *testEnv) audits(t *testing.T, action models.AuditAction) []models.AuditLog {
	t.Helper()
	out, err := e.logs.Query(context.Background(), models.AuditFilter{Action: action})
	if err != nil {
		t.Fatalf("query audit log: %v", err)
	}
	return out
}

func (e *testEnv) attemptsFor(t *testing.T, ip string) int {
	t.Helper()
	a, err := e.attempts.Get(context.Background(), ip)
	if err != nil {
		t.Fatalf("attempts get: %v", err)
	}
	if a == nil {
		return 0
	}
	return a.Count
}

var masterKey = []byte("0123456789abcdef0123456789abcdef")

func room(id string, tpl models.Template) *models.Room {
	return &models.Room{
		ID:         id,
		Name:       "Room " + id,
		Template:   tpl,
		Creator:    "host",
		CreatedAt:  epoch,
		BlockedIPs: []models.IPBan{},
		AllowedIPs: []string{},
		Settings:   tpl.Settings(),
	}
}

func lockedRoom(id, password string) *models.Room {
	r := room(id, models.TemplateOpen)
	r.Locked = true
	r.PasswordHash = cryptox.HashPassword(password)
	return r
}

func ptr[T any](v T) *T { return &v }
