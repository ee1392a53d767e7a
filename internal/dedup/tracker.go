// Package dedup provides a Redis-backed fast path for duplicate-publication
// checks. It is advisory only: the publication_records unique constraint in
// PostgreSQL remains the authoritative at-most-once guard.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/scribeworks/contentq/internal/logger"
)

// Tracker caches (idea, channel) pairs that have already been published.
type Tracker struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

// NewTracker creates a new tracker. Keys expire after ttl; an expired key
// just means the next check falls through to PostgreSQL.
func NewTracker(client redis.UniversalClient, ttl time.Duration, log logger.Logger) *Tracker {
	return &Tracker{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (t *Tracker) key(ideaID uuid.UUID, channel string) string {
	return fmt.Sprintf("published:idea:%s:%s", ideaID, channel)
}

// HasPublished reports whether the cache has seen a publication for the
// (idea, channel) pair. Redis errors are logged and treated as "unknown",
// letting the database decide.
func (t *Tracker) HasPublished(ctx context.Context, ideaID uuid.UUID, channel string) bool {
	key := t.key(ideaID, channel)

	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		t.logger.Error("redis error checking publication",
			logger.String("idea_id", ideaID.String()),
			logger.String("channel", channel),
			logger.Error(err),
		)
		return false
	}

	return exists == 1
}

// MarkPublished caches a successful publication.
func (t *Tracker) MarkPublished(ctx context.Context, ideaID uuid.UUID, channel string) error {
	key := t.key(ideaID, channel)

	err := t.client.Set(ctx, key, "1", t.ttl).Err()
	if err != nil {
		t.logger.Error("redis error marking publication",
			logger.String("idea_id", ideaID.String()),
			logger.String("channel", channel),
			logger.Error(err),
		)
		return err
	}

	t.logger.Debug("publication cached",
		logger.String("idea_id", ideaID.String()),
		logger.String("channel", channel),
		logger.Duration("ttl", t.ttl),
	)

	return nil
}

// Clear removes a cached publication, forcing the next check back to PostgreSQL.
func (t *Tracker) Clear(ctx context.Context, ideaID uuid.UUID, channel string) error {
	if err := t.client.Del(ctx, t.key(ideaID, channel)).Err(); err != nil {
		return fmt.Errorf("clear publication key: %w", err)
	}
	return nil
}

// FlushAll removes every cached publication key. Uses SCAN rather than
// FLUSHDB so unrelated keys in the same database survive.
func (t *Tracker) FlushAll(ctx context.Context) error {
	const pattern = "published:idea:*"
	const scanBatchSize = 100

	var cursor uint64
	var deleted int

	for {
		keys, next, err := t.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("scan keys: %w", err)
		}

		if len(keys) > 0 {
			n, delErr := t.client.Del(ctx, keys...).Result()
			if delErr != nil {
				return fmt.Errorf("delete keys: %w", delErr)
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	t.logger.Info("flushed publication cache",
		logger.Int("keys_deleted", deleted),
	)

	return nil
}
