package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scribeworks/contentq/internal/domain"
	"github.com/scribeworks/contentq/internal/logger"
)

// getStatsOverview handles GET /api/v1/stats/overview
// Combines Redis counters with lifecycle counts from PostgreSQL.
func (r *Router) getStatsOverview(c *gin.Context) {
	ctx := c.Request.Context()

	counters, err := r.statsService.GetStats(ctx)
	if err != nil {
		r.logger.Error("failed to get stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	lifecycle := gin.H{}
	for _, status := range []domain.IdeaStatus{
		domain.IdeaStatusPending,
		domain.IdeaStatusGenerated,
		domain.IdeaStatusPublished,
		domain.IdeaStatusArchived,
	} {
		count, countErr := r.repo.CountIdeasByStatus(ctx, status)
		if countErr != nil {
			r.logger.Error("failed to count ideas",
				logger.String("status", string(status)),
				logger.Error(countErr))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
			return
		}
		lifecycle[string(status)] = count
	}

	c.JSON(http.StatusOK, gin.H{
		"counters": counters,
		"ideas":    lifecycle,
	})
}

// getChannelStats handles GET /api/v1/stats/channels
// Served from publication records, the durable source of truth.
func (r *Router) getChannelStats(c *gin.Context) {
	stats, err := r.repo.GetChannelStats(c.Request.Context())
	if err != nil {
		r.logger.Error("failed to get channel stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve channel statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channels": stats,
		"count":    len(stats),
	})
}

// getRecentPublications handles GET /api/v1/stats/recent?limit=N
func (r *Router) getRecentPublications(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultRecentLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = defaultRecentLimit
	}

	pubs, err := r.statsService.GetRecentPublications(c.Request.Context(), limit)
	if err != nil {
		r.logger.Error("failed to get recent publications",
			logger.Int("limit", limit),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent publications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"publications": pubs,
		"count":        len(pubs),
	})
}
