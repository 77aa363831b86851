package service

import (
	"context"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
)

type DashboardService struct {
	repo StatsStore
}

func NewDashboardService(repo StatsStore) *DashboardService {
	return &DashboardService{repo: repo}
}

func (s *DashboardService) Stats(ctx context.Context, session *access.Session) (*domain.DashboardStats, error) {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return nil, err
	}
	return s.repo.DashboardStats(ctx)
}
