package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/auditlogs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Stats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		e.clock.Advance(time.Second)
		e.recorder.Record(ctx, models.AuditLog{RoomID: "a", Action: models.ActionParticipantJoined, ActorName: fmt.Sprint(i)})
	}
	e.recorder.Record(ctx, models.AuditLog{RoomID: "a", Action: models.ActionPasswordFailed, ActorName: "x"})
	e.recorder.Record(ctx, models.AuditLog{RoomID: "b", Action: models.ActionRoomCreated, ActorName: "y"})

	svc := NewAuditService(e.logs)

	stats, err := svc.Stats(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 13, stats.TotalLogs)
	assert.Equal(t, map[models.AuditAction]int{
		models.ActionParticipantJoined: 12,
		models.ActionPasswordFailed:    1,
	}, stats.ActionCounts)
	require.Len(t, stats.RecentActivity, 10)
	assert.Equal(t, models.ActionPasswordFailed, stats.RecentActivity[0].Action)

	all, err := svc.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 14, all.TotalLogs)
}

func TestAuditService_Query(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewAuditService(e.logs)

	e.recorder.Record(ctx, models.AuditLog{RoomID: "a", Action: models.ActionRoomCreated, ActorName: "Imam Ali"})
	e.recorder.Record(ctx, models.AuditLog{RoomID: "a", Action: models.ActionRoomUpdated, ActorName: "someone"})

	got, err := svc.Query(ctx, models.AuditFilter{ActorName: "imam"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ActionRoomCreated, got[0].Action)

	_, err = svc.Query(ctx, models.AuditFilter{Limit: -1})
	assert.ErrorIs(t, err, common.ErrorValidation)

	start, end := epoch, epoch.Add(-time.Hour)
	_, err = svc.Query(ctx, models.AuditFilter{StartTime: &start, EndTime: &end})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestAuditRecorder_ArchivesEvicted(t *testing.T) {
	clock := newClock()
	logs := auditlogs.NewMemoryRepository(2, clock.Now)
	arch := &fakeArchiver{}
	rec := NewAuditRecorder(logs, arch, logging.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec.Record(ctx, models.AuditLog{RoomID: "a", Action: models.ActionParticipantJoined, ActorName: fmt.Sprint(i)})
	}

	require.Len(t, arch.batches, 1)
	require.Len(t, arch.batches[0], 1)
	assert.Equal(t, "0", arch.batches[0][0].ActorName)
}
