package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PublicationRecord is durable proof that an idea was published to a channel.
// At most one record exists per (idea_id, channel) pair; the database unique
// constraint is the authoritative guard.
type PublicationRecord struct {
	ID             uuid.UUID `db:"id"               json:"id"`
	IdeaID         uuid.UUID `db:"idea_id"          json:"idea_id"`
	Channel        string    `db:"channel"          json:"channel"`
	ExternalPostID string    `db:"external_post_id" json:"external_post_id"`
	PublishedAt    time.Time `db:"published_at"     json:"published_at"`
}

// PublicationCreateRequest represents the data supplied by an external
// publisher after a successful post to a third-party platform.
type PublicationCreateRequest struct {
	Channel        string `binding:"required" json:"channel"`
	ExternalPostID string `binding:"required" json:"external_post_id"`
}

// Validate checks the create request fields.
func (r *PublicationCreateRequest) Validate() error {
	if r.Channel == "" {
		return fmt.Errorf("%w: channel is required", ErrValidation)
	}
	if r.ExternalPostID == "" {
		return fmt.Errorf("%w: external_post_id is required", ErrValidation)
	}
	return nil
}
