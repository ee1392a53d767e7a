// Package main is the entry point for the contentq service: the content
// idea queue HTTP API and the background publish worker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scribeworks/contentq/internal/api"
	"github.com/scribeworks/contentq/internal/config"
	"github.com/scribeworks/contentq/internal/database"
	"github.com/scribeworks/contentq/internal/dedup"
	"github.com/scribeworks/contentq/internal/logger"
	"github.com/scribeworks/contentq/internal/metrics"
	"github.com/scribeworks/contentq/internal/publish"
	"github.com/scribeworks/contentq/internal/worker"
)

// version can be set at build time via -ldflags
var version = "dev"

const (
	shutdownTimeout   = 30 * time.Second
	redisPingTimeout  = 2 * time.Second
	schemaTimeout     = 10 * time.Second
	flushCacheTimeout = 30 * time.Second
)

func main() {
	var configPath string
	var flushCache bool
	flag.StringVar(&configPath, "config", "config.yml", "Path to configuration file")
	flag.BoolVar(&flushCache, "flush-cache", false, "Flush the Redis publication cache and exit")
	flag.Parse()

	if err := run(configPath, flushCache); err != nil {
		fmt.Fprintf(os.Stderr, "contentq: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, flushCache bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(
		logger.String("service", "contentq"),
		logger.String("version", version),
	)

	// Redis is shared between the dedup cache, channel metrics, and the
	// pub/sub publishers.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
		return fmt.Errorf("connect to Redis: %w", pingErr)
	}

	tracker := dedup.NewTracker(redisClient, cfg.Worker.DedupTTL, log)

	if flushCache {
		ctx, cancelFlush := context.WithTimeout(context.Background(), flushCacheTimeout)
		defer cancelFlush()
		return tracker.FlushAll(ctx)
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close(db)

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancelSchema()
	if schemaErr := database.EnsureSchema(schemaCtx, db); schemaErr != nil {
		return schemaErr
	}

	repo := database.NewRepository(db, log)
	metricsTracker := metrics.NewTracker(redisClient, cfg.Worker.Channels, log)
	statsService := api.NewStatsService(metricsTracker, log)

	// One publisher per configured channel; channel bots subscribe to the
	// matching Redis Pub/Sub channels.
	publishers := make([]publish.Publisher, 0, len(cfg.Worker.Channels))
	for _, channel := range cfg.Worker.Channels {
		publishers = append(publishers, publish.NewRedisPublisher(redisClient, channel))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publishWorker *worker.PublishWorker
	if cfg.Worker.Enabled {
		publishWorker = worker.NewPublishWorker(repo, publishers, tracker, metricsTracker, worker.Config{
			PollInterval: cfg.Worker.PollInterval,
			BatchSize:    cfg.Worker.BatchSize,
		}, log)
		publishWorker.Start(ctx)
		defer publishWorker.Stop()
	}

	router := api.NewRouter(repo, statsService, redisClient, cfg, log, version)
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting contentq API server",
			logger.String("address", cfg.Server.Address))
		if listenErr := server.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			serverErr <- listenErr
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		return fmt.Errorf("server shutdown: %w", shutdownErr)
	}

	log.Info("contentq stopped")
	return nil
}
