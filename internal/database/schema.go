package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the tables the service owns. Idempotent.
// The unique index on (idea_id, channel) is the authoritative guard for
// at-most-once publication per channel.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS content_ideas (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		urgency TEXT NOT NULL DEFAULT 'medium',
		estimated_reach INTEGER NOT NULL DEFAULT 0,
		keywords TEXT[] NOT NULL DEFAULT '{}',
		data_points JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_ideas_status
		ON content_ideas (status)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
		idea_id UUID PRIMARY KEY REFERENCES content_ideas(id),
		rendered_text TEXT NOT NULL,
		visual_path TEXT,
		humanized BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS publication_records (
		id UUID PRIMARY KEY,
		idea_id UUID NOT NULL REFERENCES content_ideas(id),
		channel TEXT NOT NULL,
		external_post_id TEXT NOT NULL,
		published_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT publication_records_idea_channel_key UNIQUE (idea_id, channel)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_publication_records_channel
		ON publication_records (channel, published_at DESC)`,
}

// EnsureSchema creates the service tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
