// Package publish defines the publisher capability the publish worker uses
// to deliver rendered artifacts to external channels.
package publish

import (
	"context"

	"github.com/scribeworks/contentq/internal/domain"
)

// Publisher delivers a rendered artifact to one external channel and returns
// the platform-assigned post identifier. Implementations own their network
// calls, timeouts, and retries; the core never retries on their behalf.
type Publisher interface {
	// Channel returns the channel name this publisher serves, e.g. "telegram".
	Channel() string

	// Publish delivers the artifact and returns the external post ID.
	Publish(ctx context.Context, idea *domain.ContentIdea, artifact *domain.Artifact) (string, error)
}
