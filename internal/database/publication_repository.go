package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/contentq/internal/domain"
)

const publicationColumns = `id, idea_id, channel, external_post_id, published_at`

// RecordPublication records that an idea was published to a channel and
// advances the idea to published, in one transaction scoped to the idea row.
//
// The idea must be generated (or already published, for additional channels).
// Two processes racing to record the same (idea, channel) yield exactly one
// success; the loser gets ErrDuplicatePublication from the unique constraint.
// External network calls never happen inside this transaction.
func (r *Repository) RecordPublication(ctx context.Context, ideaID uuid.UUID, req *domain.PublicationCreateRequest) (*domain.PublicationRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	// Lock the idea row so racing recorders serialize on it.
	var status domain.IdeaStatus
	err = tx.GetContext(ctx, &status,
		`SELECT status FROM content_ideas WHERE id = $1 FOR UPDATE`, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: idea %s", domain.ErrNotFound, ideaID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock idea: %w", err)
	}

	// Generated ideas publish for the first time; published ideas may still
	// gain records on other channels. Anything else is a caller ordering bug.
	if status != domain.IdeaStatusGenerated && status != domain.IdeaStatusPublished {
		return nil, fmt.Errorf("%w: idea %s is %s, want %s",
			domain.ErrInvalidState, ideaID, status, domain.IdeaStatusGenerated)
	}

	record := &domain.PublicationRecord{
		ID:             uuid.New(),
		IdeaID:         ideaID,
		Channel:        req.Channel,
		ExternalPostID: req.ExternalPostID,
		PublishedAt:    time.Now().UTC(),
	}

	query := `
		INSERT INTO publication_records (id, idea_id, channel, external_post_id, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + publicationColumns

	err = tx.QueryRowxContext(
		ctx, query,
		record.ID, record.IdeaID, record.Channel, record.ExternalPostID, record.PublishedAt,
	).StructScan(record)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: idea %s, channel %s",
				domain.ErrDuplicatePublication, ideaID, req.Channel)
		}
		return nil, fmt.Errorf("failed to insert publication record: %w", err)
	}

	// A published idea always has an artifact row, even when the renderer's
	// save never reached us.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO artifacts (idea_id, rendered_text) VALUES ($1, '')
		 ON CONFLICT (idea_id) DO NOTHING`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to backfill artifact: %w", err)
	}

	if status == domain.IdeaStatusGenerated {
		_, err = tx.ExecContext(ctx,
			`UPDATE content_ideas SET status = 'published' WHERE id = $1`, ideaID)
		if err != nil {
			return nil, fmt.Errorf("failed to advance idea status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit publication: %w", err)
	}

	return record, nil
}

// GetPublicationsByIdea retrieves all publication records for an idea,
// most recent first.
func (r *Repository) GetPublicationsByIdea(ctx context.Context, ideaID uuid.UUID) ([]domain.PublicationRecord, error) {
	records := []domain.PublicationRecord{}
	query := `
		SELECT ` + publicationColumns + `
		FROM publication_records
		WHERE idea_id = $1
		ORDER BY published_at DESC`

	err := r.db.SelectContext(ctx, &records, query, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get publications by idea: %w", err)
	}

	return records, nil
}

// CheckPublished reports whether an idea has a publication record for a channel.
func (r *Repository) CheckPublished(ctx context.Context, ideaID uuid.UUID, channel string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM publication_records
			WHERE idea_id = $1 AND channel = $2
		)`

	err := r.db.GetContext(ctx, &exists, query, ideaID, channel)
	if err != nil {
		return false, fmt.Errorf("failed to check publication: %w", err)
	}

	return exists, nil
}

// PublicationFilter represents filter criteria for listing publication records.
type PublicationFilter struct {
	Channel   string     `form:"channel"`
	StartDate *time.Time `form:"start_date"                  time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date"                    time_format:"2006-01-02"`
	Limit     int        `binding:"omitempty,min=1,max=1000" form:"limit"` // Default 100
	Offset    int        `binding:"omitempty,min=0"          form:"offset"`
}

// ListPublications retrieves publication records with optional filters.
func (r *Repository) ListPublications(ctx context.Context, filter *PublicationFilter) ([]domain.PublicationRecord, error) {
	records := []domain.PublicationRecord{}

	if filter.Limit == 0 {
		filter.Limit = 100
	}
	const maxLimit = 1000
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	query := `
		SELECT ` + publicationColumns + `
		FROM publication_records
		WHERE 1=1`

	args := []any{}
	argPos := 1

	if filter.Channel != "" {
		query += fmt.Sprintf(" AND channel = $%d", argPos)
		args = append(args, filter.Channel)
		argPos++
	}
	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND published_at >= $%d", argPos)
		args = append(args, *filter.StartDate)
		argPos++
	}
	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND published_at <= $%d", argPos)
		args = append(args, *filter.EndDate)
		argPos++
	}

	query += " ORDER BY published_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	err := r.db.SelectContext(ctx, &records, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}

	return records, nil
}

// ChannelStats holds per-channel publication statistics.
type ChannelStats struct {
	Channel        string     `db:"channel"         json:"channel"`
	TotalPublished int64      `db:"total_published" json:"total_published"`
	LastPublished  *time.Time `db:"last_published"  json:"last_published,omitempty"`
}

// GetChannelStats retrieves publication counts and last-published time per channel.
func (r *Repository) GetChannelStats(ctx context.Context) ([]ChannelStats, error) {
	stats := []ChannelStats{}
	query := `
		SELECT
			channel,
			COUNT(*) AS total_published,
			MAX(published_at) AS last_published
		FROM publication_records
		GROUP BY channel
		ORDER BY total_published DESC`

	err := r.db.SelectContext(ctx, &stats, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel stats: %w", err)
	}

	return stats, nil
}
