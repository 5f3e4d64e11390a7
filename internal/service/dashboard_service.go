package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/cache"
	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/repository"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

// Dashboard is the signed-in user's overview.
type Dashboard struct {
	PostedJobs   []domain.JobWithStats
	Applications []domain.ApplicationSummary
}

// DashboardService assembles dashboards and caches them per user.
type DashboardService struct {
	jobs         repository.JobRepository
	applications repository.ApplicationRepository
	cache        cache.ViewCache
	keys         cache.Keys
	logger       *zap.Logger
}

// NewDashboardService builds the service.
func NewDashboardService(jobs repository.JobRepository, applications repository.ApplicationRepository, viewCache cache.ViewCache, keys cache.Keys, logger *zap.Logger) *DashboardService {
	if viewCache == nil {
		viewCache = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{jobs: jobs, applications: applications, cache: viewCache, keys: keys, logger: logger}
}

// Get returns the caller's posted jobs with applicant counters and their own applications.
func (s *DashboardService) Get(ctx context.Context, identity *domain.Identity) (*Dashboard, error) {
	if !identity.Authenticated() {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	if identity.UserID == "" {
		return &Dashboard{PostedJobs: []domain.JobWithStats{}, Applications: []domain.ApplicationSummary{}}, nil
	}

	key := s.keys.Dashboard(identity.UserID)
	var cached Dashboard
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	posted, err := s.jobs.ListByOwnerWithStats(ctx, identity.UserID)
	if err != nil {
		s.logger.Error("list posted jobs", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	applied, err := s.applications.ListByUser(ctx, identity.UserID)
	if err != nil {
		s.logger.Error("list applications", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if posted == nil {
		posted = []domain.JobWithStats{}
	}
	if applied == nil {
		applied = []domain.ApplicationSummary{}
	}

	dashboard := &Dashboard{PostedJobs: posted, Applications: applied}
	if err := s.cache.SetJSON(ctx, key, dashboard); err != nil {
		s.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
	return dashboard, nil
}
