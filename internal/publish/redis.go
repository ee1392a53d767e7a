package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/scribeworks/contentq/internal/domain"
)

// RedisPublisher publishes rendered artifacts to a Redis Pub/Sub channel.
// Channel-specific posting bots (messaging, professional-network,
// microblogging clients) subscribe to "content:<channel>" and perform the
// actual third-party API calls; the message ID they need to echo back as the
// external post ID is generated here.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher creates a publisher for the named channel.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
	}
}

// Channel returns the channel name this publisher serves.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// routingKey returns the Redis Pub/Sub channel for this publisher.
func (p *RedisPublisher) routingKey() string {
	return "content:" + p.channel
}

// Publish serializes the idea and artifact into the wire format the channel
// bots consume and publishes it. The returned message ID doubles as the
// external post identifier for the publication record.
func (p *RedisPublisher) Publish(ctx context.Context, idea *domain.ContentIdea, artifact *domain.Artifact) (string, error) {
	messageID := uuid.NewString()

	payload := map[string]any{
		"message_id":      messageID,
		"idea_id":         idea.ID.String(),
		"title":           idea.Title,
		"content_type":    idea.ContentType,
		"urgency":         idea.Urgency,
		"estimated_reach": idea.EstimatedReach,
		"keywords":        []string(idea.Keywords),
		"rendered_text":   artifact.RenderedText,
		"visual_path":     artifact.VisualPath,
		"humanized":       artifact.Humanized,
		"publisher": map[string]any{
			"channel":      p.channel,
			"published_at": time.Now().UTC().Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal publish message: %w", err)
	}

	if err := p.client.Publish(ctx, p.routingKey(), data).Err(); err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.routingKey(), err)
	}

	return messageID, nil
}
