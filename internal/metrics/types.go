package metrics

import "time"

// RecentPublication represents a recently recorded publication.
type RecentPublication struct {
	IdeaID         string    `json:"idea_id"`
	Title          string    `json:"title"`
	Channel        string    `json:"channel"`
	ExternalPostID string    `json:"external_post_id"`
	PublishedAt    time.Time `json:"published_at"`
}

// Stats represents aggregated publishing statistics.
type Stats struct {
	TotalPublished int64          `json:"total_published"`
	TotalSkipped   int64          `json:"total_skipped"`
	TotalErrors    int64          `json:"total_errors"`
	Channels       []ChannelStats `json:"channels"`
}

// ChannelStats represents counters for a single channel.
type ChannelStats struct {
	Name      string `json:"name"`
	Published int64  `json:"published"`
	Skipped   int64  `json:"skipped"`
	Errors    int64  `json:"errors"`
}
