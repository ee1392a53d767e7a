// Package metrics tracks per-channel publishing counters in Redis.
// Counters carry a TTL so abandoned channels age out on their own.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scribeworks/contentq/internal/logger"
)

// Tracker implements per-channel publish metrics using Redis.
type Tracker struct {
	client   redis.UniversalClient
	keys     *RedisKeys
	logger   logger.Logger
	channels []string // For GetStats aggregation
}

// NewTracker creates a new metrics tracker.
func NewTracker(client redis.UniversalClient, channels []string, log logger.Logger) *Tracker {
	return &Tracker{
		client:   client,
		keys:     NewRedisKeys(KeyPrefixMetrics),
		logger:   log,
		channels: channels,
	}
}

// incrWithTTL increments a counter and refreshes its TTL in one pipeline.
func (t *Tracker) incrWithTTL(ctx context.Context, key, kind, channel string) error {
	ttl := MetricsTTLDays * HoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to increment counter",
			logger.String("kind", kind),
			logger.String("channel", channel),
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return fmt.Errorf("increment %s counter: %w", kind, err)
	}

	return nil
}

// IncrementPublished increments the published counter for a channel.
func (t *Tracker) IncrementPublished(ctx context.Context, channel string) error {
	return t.incrWithTTL(ctx, t.keys.Published(channel), "published", channel)
}

// IncrementSkipped increments the skipped counter for a channel.
func (t *Tracker) IncrementSkipped(ctx context.Context, channel string) error {
	return t.incrWithTTL(ctx, t.keys.Skipped(channel), "skipped", channel)
}

// IncrementErrors increments the error counter for a channel.
func (t *Tracker) IncrementErrors(ctx context.Context, channel string) error {
	return t.incrWithTTL(ctx, t.keys.Errors(channel), "errors", channel)
}

// AddRecentPublication pushes a publication onto the recent list, trimming
// it to MaxRecentPublications.
func (t *Tracker) AddRecentPublication(ctx context.Context, pub RecentPublication) error {
	data, err := json.Marshal(pub)
	if err != nil {
		return fmt.Errorf("marshal publication: %w", err)
	}

	ttl := RecentPublicationsTTLDays * HoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.LPush(ctx, KeyRecentPublications, data)
	pipe.LTrim(ctx, KeyRecentPublications, 0, MaxRecentPublications-1)
	pipe.Expire(ctx, KeyRecentPublications, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to add recent publication",
			logger.String("idea_id", pub.IdeaID),
			logger.String("channel", pub.Channel),
			logger.Error(err),
		)
		return fmt.Errorf("add recent publication: %w", err)
	}

	return nil
}

// GetRecentPublications returns up to limit entries from the recent list,
// newest first.
func (t *Tracker) GetRecentPublications(ctx context.Context, limit int) ([]RecentPublication, error) {
	if limit <= 0 || limit > MaxRecentPublications {
		limit = MaxRecentPublications
	}

	raw, err := t.client.LRange(ctx, KeyRecentPublications, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent publications: %w", err)
	}

	pubs := make([]RecentPublication, 0, len(raw))
	for _, item := range raw {
		var pub RecentPublication
		if unmarshalErr := json.Unmarshal([]byte(item), &pub); unmarshalErr != nil {
			t.logger.Warn("skipping malformed recent publication entry",
				logger.Error(unmarshalErr),
			)
			continue
		}
		pubs = append(pubs, pub)
	}

	return pubs, nil
}

// GetStats returns aggregated counters across all configured channels,
// read atomically via a pipeline.
func (t *Tracker) GetStats(ctx context.Context) (*Stats, error) {
	pipe := t.client.Pipeline()

	publishedCmds := make(map[string]*redis.StringCmd, len(t.channels))
	skippedCmds := make(map[string]*redis.StringCmd, len(t.channels))
	errorCmds := make(map[string]*redis.StringCmd, len(t.channels))

	for _, channel := range t.channels {
		publishedCmds[channel] = pipe.Get(ctx, t.keys.Published(channel))
		skippedCmds[channel] = pipe.Get(ctx, t.keys.Skipped(channel))
		errorCmds[channel] = pipe.Get(ctx, t.keys.Errors(channel))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	stats := &Stats{Channels: make([]ChannelStats, 0, len(t.channels))}
	for _, channel := range t.channels {
		cs := ChannelStats{
			Name:      channel,
			Published: counterValue(publishedCmds[channel]),
			Skipped:   counterValue(skippedCmds[channel]),
			Errors:    counterValue(errorCmds[channel]),
		}
		stats.TotalPublished += cs.Published
		stats.TotalSkipped += cs.Skipped
		stats.TotalErrors += cs.Errors
		stats.Channels = append(stats.Channels, cs)
	}

	return stats, nil
}

// counterValue parses a counter read; missing or malformed keys count as zero.
func counterValue(cmd *redis.StringCmd) int64 {
	if cmd == nil {
		return 0
	}
	val, err := cmd.Int64()
	if err != nil {
		return 0
	}
	return val
}
