// Package worker provides the background publish worker that drains
// generated ideas to their configured channels.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/scribeworks/contentq/internal/database"
	"github.com/scribeworks/contentq/internal/dedup"
	"github.com/scribeworks/contentq/internal/domain"
	"github.com/scribeworks/contentq/internal/logger"
	"github.com/scribeworks/contentq/internal/metrics"
	"github.com/scribeworks/contentq/internal/publish"
)

const (
	defaultPollInterval   = 30 * time.Second
	defaultBatchSize      = 10
	defaultPublishTimeout = 10 * time.Second
)

// PublishWorker polls for generated ideas with artifacts and publishes them
// to every configured channel. Duplicate publication is impossible by
// construction: the external post only becomes durable via RecordPublication,
// which defers to the (idea, channel) unique constraint. The dedup cache and
// CheckPublished pre-checks exist to avoid re-posting to the external
// platform, not to guarantee the invariant.
type PublishWorker struct {
	repo       *database.Repository
	publishers []publish.Publisher
	tracker    *dedup.Tracker
	metrics    *metrics.Tracker
	logger     logger.Logger
	tracer     trace.Tracer

	pollInterval   time.Duration
	batchSize      int
	publishTimeout time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// Config holds worker configuration options.
type Config struct {
	PollInterval   time.Duration
	BatchSize      int
	PublishTimeout time.Duration
}

// NewPublishWorker creates a new publish worker.
func NewPublishWorker(
	repo *database.Repository,
	publishers []publish.Publisher,
	tracker *dedup.Tracker,
	metricsTracker *metrics.Tracker,
	cfg Config,
	log logger.Logger,
) *PublishWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}

	return &PublishWorker{
		repo:           repo,
		publishers:     publishers,
		tracker:        tracker,
		metrics:        metricsTracker,
		logger:         log,
		tracer:         otel.Tracer("publish-worker"),
		pollInterval:   cfg.PollInterval,
		batchSize:      cfg.BatchSize,
		publishTimeout: cfg.PublishTimeout,
		stopChan:       make(chan struct{}),
	}
}

// Start begins the polling loop.
func (w *PublishWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx, stop)

	w.logger.Info("publish worker started",
		logger.Duration("poll_interval", w.pollInterval),
		logger.Int("batch_size", w.batchSize),
		logger.Int("channels", len(w.publishers)))
}

// Stop gracefully stops the worker.
func (w *PublishWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	close(w.stopChan)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("publish worker stopped")
}

// IsRunning returns whether the worker is currently running.
func (w *PublishWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *PublishWorker) run(ctx context.Context, stop <-chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.processOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.processOnce(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// processOnce drains one batch of publish candidates.
func (w *PublishWorker) processOnce(ctx context.Context) {
	candidates, err := w.repo.GetPublishCandidates(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to fetch publish candidates", logger.Error(err))
		return
	}
	if len(candidates) == 0 {
		return
	}

	w.logger.Debug("processing publish candidates", logger.Int("count", len(candidates)))
	for i := range candidates {
		for _, pub := range w.publishers {
			w.publishOne(ctx, &candidates[i], pub)
		}
	}
}

// publishOne delivers one idea to one channel and records the result.
func (w *PublishWorker) publishOne(ctx context.Context, c *database.PublishCandidate, pub publish.Publisher) {
	channel := pub.Channel()
	ctx, span := w.tracer.Start(ctx, "contentq.publish",
		trace.WithAttributes(
			attribute.String("idea_id", c.Idea.ID.String()),
			attribute.String("channel", channel),
			attribute.String("urgency", string(c.Idea.Urgency)),
		))
	defer span.End()

	// Fast path: skip ideas this channel already received.
	if w.tracker.HasPublished(ctx, c.Idea.ID, channel) {
		w.countSkipped(ctx, channel)
		return
	}

	// Authoritative pre-check before touching the external platform.
	published, err := w.repo.CheckPublished(ctx, c.Idea.ID, channel)
	if err != nil {
		w.logger.Error("failed to check prior publication",
			logger.String("idea_id", c.Idea.ID.String()),
			logger.String("channel", channel),
			logger.Error(err))
		w.countError(ctx, channel)
		return
	}
	if published {
		_ = w.tracker.MarkPublished(ctx, c.Idea.ID, channel)
		w.countSkipped(ctx, channel)
		return
	}

	// The external post happens outside any transaction.
	pubCtx, cancel := context.WithTimeout(ctx, w.publishTimeout)
	externalID, err := pub.Publish(pubCtx, &c.Idea, &c.Artifact)
	cancel()
	if err != nil {
		w.logger.Error("failed to publish idea",
			logger.String("idea_id", c.Idea.ID.String()),
			logger.String("channel", channel),
			logger.Error(err))
		w.countError(ctx, channel)
		return
	}

	record, err := w.repo.RecordPublication(ctx, c.Idea.ID, &domain.PublicationCreateRequest{
		Channel:        channel,
		ExternalPostID: externalID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePublication) {
			// Lost a race to another process; already done.
			_ = w.tracker.MarkPublished(ctx, c.Idea.ID, channel)
			w.countSkipped(ctx, channel)
			return
		}
		w.logger.Error("failed to record publication",
			logger.String("idea_id", c.Idea.ID.String()),
			logger.String("channel", channel),
			logger.String("external_post_id", externalID),
			logger.Error(err))
		w.countError(ctx, channel)
		return
	}

	_ = w.tracker.MarkPublished(ctx, c.Idea.ID, channel)
	w.countPublished(ctx, record, c.Idea.Title)

	w.logger.Info("idea published",
		logger.String("idea_id", c.Idea.ID.String()),
		logger.String("channel", channel),
		logger.String("external_post_id", externalID))
}

func (w *PublishWorker) countPublished(ctx context.Context, record *domain.PublicationRecord, title string) {
	if w.metrics == nil {
		return
	}
	_ = w.metrics.IncrementPublished(ctx, record.Channel)
	_ = w.metrics.AddRecentPublication(ctx, metrics.RecentPublication{
		IdeaID:         record.IdeaID.String(),
		Title:          title,
		Channel:        record.Channel,
		ExternalPostID: record.ExternalPostID,
		PublishedAt:    record.PublishedAt,
	})
}

func (w *PublishWorker) countSkipped(ctx context.Context, channel string) {
	if w.metrics != nil {
		_ = w.metrics.IncrementSkipped(ctx, channel)
	}
}

func (w *PublishWorker) countError(ctx context.Context, channel string) {
	if w.metrics != nil {
		_ = w.metrics.IncrementErrors(ctx, channel)
	}
}
