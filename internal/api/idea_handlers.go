package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scribeworks/contentq/internal/domain"
	"github.com/scribeworks/contentq/internal/logger"
)

const defaultPendingLimit = 10

// createIdea handles POST /api/v1/ideas
func (r *Router) createIdea(c *gin.Context) {
	var req domain.IdeaCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	idea, err := r.repo.CreateIdea(c.Request.Context(), &req)
	if err != nil {
		r.logger.Error("failed to create idea",
			logger.String("title", req.Title),
			logger.Error(err))
		handleDomainError(c, err, "create idea")
		return
	}

	c.JSON(http.StatusCreated, idea)
}

// getIdea handles GET /api/v1/ideas/:id
func (r *Router) getIdea(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	idea, err := r.repo.GetIdeaByID(c.Request.Context(), id)
	if err != nil {
		handleDomainError(c, err, "get idea")
		return
	}

	c.JSON(http.StatusOK, idea)
}

// getPendingIdeas handles GET /api/v1/ideas/pending?limit=N
func (r *Router) getPendingIdeas(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultPendingLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	ideas, err := r.repo.GetPendingIdeas(c.Request.Context(), limit)
	if err != nil {
		handleDomainError(c, err, "list pending ideas")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ideas": ideas,
		"count": len(ideas),
	})
}

// markGenerated handles POST /api/v1/ideas/:id/generated
func (r *Router) markGenerated(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := r.repo.MarkGenerated(c.Request.Context(), id); err != nil {
		handleDomainError(c, err, "mark idea generated")
		return
	}

	c.Status(http.StatusNoContent)
}

// archiveIdea handles POST /api/v1/ideas/:id/archive
func (r *Router) archiveIdea(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := r.repo.ArchiveIdea(c.Request.Context(), id); err != nil {
		handleDomainError(c, err, "archive idea")
		return
	}

	c.Status(http.StatusNoContent)
}
