package metrics

import "fmt"

const (
	// KeyPrefixMetrics is the prefix for all metrics keys
	KeyPrefixMetrics = "contentq:metrics"
	// KeyPrefixPublished is the prefix for published counters
	KeyPrefixPublished = "published"
	// KeyPrefixSkipped is the prefix for skipped counters
	KeyPrefixSkipped = "skipped"
	// KeyPrefixErrors is the prefix for error counters
	KeyPrefixErrors = "errors"
	// KeyRecentPublications is the Redis key for the recent publications list
	KeyRecentPublications = "contentq:metrics:recent:publications"
	// MaxRecentPublications is the maximum number of recent publications to keep
	MaxRecentPublications = 100
	// MetricsTTLDays is the TTL in days for metrics counters
	MetricsTTLDays = 30
	// RecentPublicationsTTLDays is the TTL in days for the recent publications list
	RecentPublicationsTTLDays = 7
	// HoursPerDay converts day counts to hour durations
	HoursPerDay = 24
)

// RedisKeys builds Redis keys consistently.
type RedisKeys struct {
	prefix string
}

// NewRedisKeys creates a new RedisKeys instance.
func NewRedisKeys(prefix string) *RedisKeys {
	return &RedisKeys{prefix: prefix}
}

// Published returns the Redis key for the published counter for a channel.
func (k *RedisKeys) Published(channel string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixPublished, channel)
}

// Skipped returns the Redis key for the skipped counter for a channel.
func (k *RedisKeys) Skipped(channel string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixSkipped, channel)
}

// Errors returns the Redis key for the error counter for a channel.
func (k *RedisKeys) Errors(channel string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixErrors, channel)
}
