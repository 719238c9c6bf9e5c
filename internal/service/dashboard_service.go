package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

// DashboardService serves the landing-page totals. The sheet backend
// recounts its rows on every call, so the summary is cached briefly.
type DashboardService struct {
	sheets calendarSheetClient
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
}

// NewDashboardService constructs the service.
func NewDashboardService(client calendarSheetClient, cache *CacheService, logger *zap.Logger, ttl time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{sheets: client, cache: cache, logger: logger, ttl: ttl}
}

type upstreamDashboardResult struct {
	Success            bool   `json:"success"`
	TotalAnnouncements int    `json:"totalAnnouncements"`
	TotalVehicleLogs   int    `json:"totalVehicleLogs"`
	ActiveVehicles     int    `json:"activeVehicles"`
	Error              string `json:"error"`
}

// Summary returns the dashboard totals. The bool reports whether the totals
// came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	if s.cache.Enabled() {
		var cached models.DashboardSummary
		if hit, _ := s.cache.Get(ctx, dashboardCacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	result, err := s.sheets.Get(ctx, "getDashboard", nil)
	if err != nil {
		return nil, false, err
	}

	var dash upstreamDashboardResult
	if err := result.Decode(&dash); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unreadable dashboard response")
	}
	if !dash.Success {
		return nil, false, appErrors.Clone(appErrors.ErrUpstreamRejected, dash.Error)
	}

	summary := &models.DashboardSummary{
		TotalAnnouncements: dash.TotalAnnouncements,
		TotalVehicleLogs:   dash.TotalVehicleLogs,
		ActiveVehicles:     dash.ActiveVehicles,
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops the cached summary after a mutation.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
