package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeworks/contentq/internal/domain"
	"github.com/scribeworks/contentq/internal/logger"
)

// saveArtifact handles PUT /api/v1/ideas/:id/artifact
// Saving twice for the same idea overwrites the prior artifact.
func (r *Router) saveArtifact(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req domain.ArtifactSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := r.repo.SaveArtifact(c.Request.Context(), id, &req)
	if err != nil {
		r.logger.Error("failed to save artifact",
			logger.String("idea_id", id.String()),
			logger.Error(err))
		handleDomainError(c, err, "save artifact")
		return
	}

	c.JSON(http.StatusOK, artifact)
}

// getArtifact handles GET /api/v1/ideas/:id/artifact
func (r *Router) getArtifact(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	artifact, err := r.repo.GetArtifact(c.Request.Context(), id)
	if err != nil {
		handleDomainError(c, err, "get artifact")
		return
	}

	c.JSON(http.StatusOK, artifact)
}
