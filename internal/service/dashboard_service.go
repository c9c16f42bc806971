package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hosteldesk/facility-api/internal/models"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
)

type dashboardComplaintRepository interface {
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.ComplaintStatus) (int, error)
}

type dashboardTicketRepository interface {
	CountByStatus(ctx context.Context, status models.TicketStatus) (int, error)
}

const dashboardCacheKey = "dashboard:stats"

// DashboardService aggregates workload counters for wardens and admins.
// Counts are computed per request; the cache layer is off by default so
// the numbers stay point-in-time accurate.
type DashboardService struct {
	complaints dashboardComplaintRepository
	tickets    dashboardTicketRepository
	cache      *CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(complaints dashboardComplaintRepository, tickets dashboardTicketRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{complaints: complaints, tickets: tickets, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Stats returns the current complaint and ticket counts.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if s.cache.Enabled() {
		var cached models.DashboardStats
		if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	stats := &models.DashboardStats{}
	var err error

	if stats.TotalComplaints, err = s.complaints.CountAll(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count complaints")
	}
	if stats.PendingComplaints, err = s.complaints.CountByStatus(ctx, models.ComplaintSubmitted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending complaints")
	}
	if stats.CompletedComplaints, err = s.complaints.CountByStatus(ctx, models.ComplaintCompleted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count completed complaints")
	}
	if stats.OpenTickets, err = s.tickets.CountByStatus(ctx, models.TicketOpen); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open tickets")
	}
	if stats.ResolvedTickets, err = s.tickets.CountByStatus(ctx, models.TicketResolved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count resolved tickets")
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
		}
	}

	return stats, nil
}
