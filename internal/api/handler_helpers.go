package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scribeworks/contentq/internal/domain"
)

// parseUUID parses a UUID from a gin.Context parameter.
func parseUUID(c *gin.Context, paramName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid idea ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// handleDomainError maps core errors onto HTTP status codes. Callers get the
// error kind and the ids involved, never a stack trace.
func handleDomainError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicatePublication):
		c.JSON(http.StatusConflict, gin.H{
			"error":          err.Error(),
			"already_posted": true,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to " + operation,
		})
	}
}
