package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/contentq/internal/domain"
	"github.com/scribeworks/contentq/internal/logger"
)

const artifactColumns = `idea_id, rendered_text, visual_path, humanized, updated_at`

// SaveArtifact stores the rendered artifact for an idea. A second save for
// the same idea overwrites the prior artifact (last-writer-wins); the
// overwrite is logged, not treated as an error.
func (r *Repository) SaveArtifact(ctx context.Context, ideaID uuid.UUID, req *domain.ArtifactSaveRequest) (*domain.Artifact, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM artifacts WHERE idea_id = $1)`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to check artifact: %w", err)
	}
	if exists {
		r.logger.Info("overwriting existing artifact",
			logger.String("idea_id", ideaID.String()),
		)
	}

	artifact := &domain.Artifact{}
	query := `
		INSERT INTO artifacts (idea_id, rendered_text, visual_path, humanized, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idea_id) DO UPDATE SET
			rendered_text = EXCLUDED.rendered_text,
			visual_path = EXCLUDED.visual_path,
			humanized = EXCLUDED.humanized,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + artifactColumns

	err = r.db.QueryRowxContext(
		ctx, query,
		ideaID, req.RenderedText, req.VisualPath, req.Humanized, time.Now().UTC(),
	).StructScan(artifact)

	if err != nil {
		if pqErr := asPqError(err); pqErr != nil && pqErr.Code == foreignKeyViolation {
			return nil, fmt.Errorf("%w: idea %s", domain.ErrNotFound, ideaID)
		}
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}

	return artifact, nil
}

// GetArtifact retrieves the canonical artifact for an idea.
func (r *Repository) GetArtifact(ctx context.Context, ideaID uuid.UUID) (*domain.Artifact, error) {
	artifact := &domain.Artifact{}
	query := `SELECT ` + artifactColumns + ` FROM artifacts WHERE idea_id = $1`

	err := r.db.GetContext(ctx, artifact, query, ideaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: artifact for idea %s", domain.ErrNotFound, ideaID)
		}
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	return artifact, nil
}
