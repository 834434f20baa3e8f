package services

import (
	"context"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/auditlogs"
)

const recentActivitySize = 10

type AuditService struct {
	repo auditlogs.Repository
}

func NewAuditService(repo auditlogs.Repository) *AuditService {
	return &AuditService{repo: repo}
}

// Query returns entries matching f, newest first.
func (s *AuditService) Query(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, error) {
	if f.Limit < 0 {
		return nil, invalid("limit must not be negative")
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return nil, invalid("endTime is before startTime")
	}
	return s.repo.Query(ctx, f)
}

// Stats summarizes the log, optionally for one room.
func (s *AuditService) Stats(ctx context.Context, roomID string) (*models.AuditStats, error) {
	logs, err := s.repo.Query(ctx, models.AuditFilter{RoomID: roomID})
	if err != nil {
		return nil, err
	}

	counts := make(map[models.AuditAction]int)
	for _, l := range logs {
		counts[l.Action]++
	}

	recent := logs
	if len(recent) > recentActivitySize {
		recent = recent[:recentActivitySize]
	}

	return &models.AuditStats{
		TotalLogs:      len(logs),
		ActionCounts:   counts,
		RecentActivity: recent,
	}, nil
}
