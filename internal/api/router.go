// Package api exposes the content queue operations over HTTP so external
// generator, renderer, and publisher processes can integrate without linking
// the core.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/scribeworks/contentq/internal/config"
	"github.com/scribeworks/contentq/internal/database"
	"github.com/scribeworks/contentq/internal/logger"
)

const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	serviceName          = "contentq"
)

// Router holds the API dependencies.
type Router struct {
	repo         *database.Repository
	statsService *StatsService
	redisClient  redis.UniversalClient
	cfg          *config.Config
	logger       logger.Logger
	version      string
}

// NewRouter creates a new API router.
func NewRouter(
	repo *database.Repository,
	statsService *StatsService,
	redisClient redis.UniversalClient,
	cfg *config.Config,
	log logger.Logger,
	version string,
) *Router {
	return &Router{
		repo:         repo,
		statsService: statsService,
		redisClient:  redisClient,
		cfg:          cfg,
		logger:       log,
		version:      version,
	}
}

// SetupRoutes builds the gin engine with middleware and all service routes.
func (r *Router) SetupRoutes() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(r.cfg.Server.CORSOrigins))

	// Health check (public)
	router.GET("/health", r.healthCheck)

	v1 := router.Group("/api/v1")

	ideas := v1.Group("/ideas")
	ideas.POST("", r.createIdea)
	ideas.GET("/pending", r.getPendingIdeas) // More specific route before :id
	ideas.GET("/:id", r.getIdea)
	ideas.POST("/:id/generated", r.markGenerated)
	ideas.POST("/:id/archive", r.archiveIdea)
	ideas.PUT("/:id/artifact", r.saveArtifact)
	ideas.GET("/:id/artifact", r.getArtifact)
	ideas.POST("/:id/publications", r.recordPublication)
	ideas.GET("/:id/publications", r.getPublicationsByIdea)

	publications := v1.Group("/publications")
	publications.GET("", r.listPublications)

	stats := v1.Group("/stats")
	stats.GET("/overview", r.getStatsOverview)
	stats.GET("/channels", r.getChannelStats)
	stats.GET("/recent", r.getRecentPublications)

	return router
}

// healthCheck reports service health including database and Redis connectivity.
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  healthStatusHealthy,
		"service": serviceName,
		"version": r.version,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := true
	if err := r.repo.Ping(ctx); err != nil {
		dbConnected = false
		health["status"] = healthStatusDegraded
	}
	health["database"] = gin.H{"connected": dbConnected}

	redisConnected := true
	if r.redisClient == nil || r.redisClient.Ping(ctx).Err() != nil {
		redisConnected = false
		health["status"] = healthStatusDegraded
	}
	health["redis"] = gin.H{"connected": redisConnected}

	c.JSON(200, health)
}
