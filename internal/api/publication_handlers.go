package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeworks/contentq/internal/database"
	"github.com/scribeworks/contentq/internal/domain"
	"github.com/scribeworks/contentq/internal/logger"
)

// recordPublication handles POST /api/v1/ideas/:id/publications
// External publishers call this after a successful post to a third-party
// platform. A duplicate (idea, channel) pair returns 409 with
// already_posted=true so callers can treat it as "already done".
func (r *Router) recordPublication(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req domain.PublicationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := r.repo.RecordPublication(c.Request.Context(), id, &req)
	if err != nil {
		r.logger.Warn("failed to record publication",
			logger.String("idea_id", id.String()),
			logger.String("channel", req.Channel),
			logger.Error(err))
		handleDomainError(c, err, "record publication")
		return
	}

	c.JSON(http.StatusCreated, record)
}

// getPublicationsByIdea handles GET /api/v1/ideas/:id/publications
func (r *Router) getPublicationsByIdea(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	records, err := r.repo.GetPublicationsByIdea(c.Request.Context(), id)
	if err != nil {
		handleDomainError(c, err, "get publications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"publications": records,
		"count":        len(records),
	})
}

// listPublications handles GET /api/v1/publications with optional filters.
func (r *Router) listPublications(c *gin.Context) {
	var filter database.PublicationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := r.repo.ListPublications(c.Request.Context(), &filter)
	if err != nil {
		handleDomainError(c, err, "list publications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"publications": records,
		"count":        len(records),
	})
}
