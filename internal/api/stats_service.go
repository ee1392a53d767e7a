package api

import (
	"context"

	"github.com/scribeworks/contentq/internal/logger"
	"github.com/scribeworks/contentq/internal/metrics"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 100
)

// MetricsTracker is the metrics dependency consumed by the stats service.
type MetricsTracker interface {
	GetStats(ctx context.Context) (*metrics.Stats, error)
	GetRecentPublications(ctx context.Context, limit int) ([]metrics.RecentPublication, error)
}

// StatsService provides business logic for statistics endpoints.
type StatsService struct {
	tracker MetricsTracker
	logger  logger.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(tracker MetricsTracker, log logger.Logger) *StatsService {
	return &StatsService{
		tracker: tracker,
		logger:  log,
	}
}

// GetStats returns aggregated per-channel counters.
func (s *StatsService) GetStats(ctx context.Context) (*metrics.Stats, error) {
	return s.tracker.GetStats(ctx)
}

// GetRecentPublications returns recent publications with limit clamping.
func (s *StatsService) GetRecentPublications(ctx context.Context, limit int) ([]metrics.RecentPublication, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.tracker.GetRecentPublications(ctx, limit)
}
