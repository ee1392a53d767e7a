package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scribeworks/contentq/internal/domain"
)

// ideaColumns is the column list for SELECT/RETURNING on content_ideas
// (single source for schema changes).
const ideaColumns = `id, title, content_type, status, urgency, estimated_reach,
		keywords, data_points, created_at`

// pendingOrderBy ranks pending ideas: urgency descending, estimated reach
// descending, oldest first as the tie-break. Must stay in sync with
// ranker.Rank, which applies the same ordering in memory.
const pendingOrderBy = `
	ORDER BY
		CASE urgency
			WHEN 'high' THEN 3
			WHEN 'medium' THEN 2
			WHEN 'low' THEN 1
			ELSE 0
		END DESC,
		estimated_reach DESC,
		created_at ASC`

// candidateOrderBy is pendingOrderBy with table-qualified columns for the
// artifact join in GetPublishCandidates.
const candidateOrderBy = `
	ORDER BY
		CASE i.urgency
			WHEN 'high' THEN 3
			WHEN 'medium' THEN 2
			WHEN 'low' THEN 1
			ELSE 0
		END DESC,
		i.estimated_reach DESC,
		i.created_at ASC`

// CreateIdea validates the request and inserts a new pending idea.
func (r *Repository) CreateIdea(ctx context.Context, req *domain.IdeaCreateRequest) (*domain.ContentIdea, error) {
	idea, err := domain.NewContentIdea(req)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO content_ideas (id, title, content_type, status, urgency, estimated_reach, keywords, data_points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + ideaColumns

	err = r.db.QueryRowxContext(
		ctx, query,
		idea.ID, idea.Title, idea.ContentType, idea.Status, idea.Urgency,
		idea.EstimatedReach, idea.Keywords, idea.DataPoints, idea.CreatedAt,
	).StructScan(idea)

	if err != nil {
		return nil, fmt.Errorf("failed to create idea: %w", err)
	}

	return idea, nil
}

// GetIdeaByID retrieves an idea by ID.
func (r *Repository) GetIdeaByID(ctx context.Context, id uuid.UUID) (*domain.ContentIdea, error) {
	idea := &domain.ContentIdea{}
	query := `SELECT ` + ideaColumns + ` FROM content_ideas WHERE id = $1`

	err := r.db.GetContext(ctx, idea, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: idea %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get idea: %w", err)
	}

	return idea, nil
}

// GetPendingIdeas returns up to limit pending ideas in ranked order.
// Readers do not block writers; an idea transitioning out of pending
// mid-scan may appear once more before disappearing.
func (r *Repository) GetPendingIdeas(ctx context.Context, limit int) ([]domain.ContentIdea, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1, got %d", domain.ErrValidation, limit)
	}

	ideas := []domain.ContentIdea{}
	query := `SELECT ` + ideaColumns + `
		FROM content_ideas
		WHERE status = 'pending'` + pendingOrderBy + `
		LIMIT $1`

	err := r.db.SelectContext(ctx, &ideas, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending ideas: %w", err)
	}

	return ideas, nil
}

// MarkGenerated transitions an idea from pending to generated.
func (r *Repository) MarkGenerated(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE content_ideas
		SET status = 'generated'
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark idea generated: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.transitionFailure(ctx, id, domain.IdeaStatusPending)
	}
	return nil
}

// ArchiveIdea transitions an idea to archived. Archived is terminal:
// any non-archived idea may be archived, and nothing ever leaves archived.
func (r *Repository) ArchiveIdea(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE content_ideas
		SET status = 'archived'
		WHERE id = $1 AND status <> 'archived'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to archive idea: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var status domain.IdeaStatus
		getErr := r.db.GetContext(ctx, &status,
			`SELECT status FROM content_ideas WHERE id = $1`, id)
		if errors.Is(getErr, sql.ErrNoRows) {
			return fmt.Errorf("%w: idea %s", domain.ErrNotFound, id)
		}
		if getErr != nil {
			return fmt.Errorf("failed to check idea status: %w", getErr)
		}
		return fmt.Errorf("%w: idea %s is already archived", domain.ErrInvalidState, id)
	}
	return nil
}

// CountIdeasByStatus returns the number of ideas in the given status.
func (r *Repository) CountIdeasByStatus(ctx context.Context, status domain.IdeaStatus) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM content_ideas WHERE status = $1`, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count ideas: %w", err)
	}
	return count, nil
}

// PublishCandidate pairs a generated idea with its rendered artifact.
type PublishCandidate struct {
	Idea     domain.ContentIdea
	Artifact domain.Artifact
}

// GetPublishCandidates returns up to limit generated ideas that have a
// non-empty rendered artifact, in ranked order. These are the ideas a
// publish worker may post.
func (r *Repository) GetPublishCandidates(ctx context.Context, limit int) ([]PublishCandidate, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1, got %d", domain.ErrValidation, limit)
	}

	query := `
		SELECT
			i.id, i.title, i.content_type, i.status, i.urgency, i.estimated_reach,
			i.keywords, i.data_points, i.created_at,
			a.idea_id, a.rendered_text, a.visual_path, a.humanized, a.updated_at
		FROM content_ideas i
		JOIN artifacts a ON a.idea_id = i.id
		WHERE i.status = 'generated' AND a.rendered_text <> ''` + candidateOrderBy + `
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get publish candidates: %w", err)
	}
	defer rows.Close()

	candidates := []PublishCandidate{}
	for rows.Next() {
		var c PublishCandidate
		scanErr := rows.Scan(
			&c.Idea.ID, &c.Idea.Title, &c.Idea.ContentType, &c.Idea.Status,
			&c.Idea.Urgency, &c.Idea.EstimatedReach, &c.Idea.Keywords,
			&c.Idea.DataPoints, &c.Idea.CreatedAt,
			&c.Artifact.IdeaID, &c.Artifact.RenderedText, &c.Artifact.VisualPath,
			&c.Artifact.Humanized, &c.Artifact.UpdatedAt,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan publish candidate: %w", scanErr)
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// transitionFailure distinguishes a missing idea from a wrong-state idea
// after a guarded UPDATE affected zero rows.
func (r *Repository) transitionFailure(ctx context.Context, id uuid.UUID, want domain.IdeaStatus) error {
	var status domain.IdeaStatus
	err := r.db.GetContext(ctx, &status,
		`SELECT status FROM content_ideas WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: idea %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check idea status: %w", err)
	}
	return fmt.Errorf("%w: idea %s is %s, want %s", domain.ErrInvalidState, id, status, want)
}
