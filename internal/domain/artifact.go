package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Artifact is the rendered output of a content idea, ready for publication.
// One artifact per idea is canonical; a re-save overwrites the prior one
// (last-writer-wins) because artifacts are regenerable, unlike publication
// records.
type Artifact struct {
	IdeaID       uuid.UUID `db:"idea_id"       json:"idea_id"`
	RenderedText string    `db:"rendered_text" json:"rendered_text"`
	VisualPath   *string   `db:"visual_path"   json:"visual_path,omitempty"`
	Humanized    bool      `db:"humanized"     json:"humanized"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}

// ArtifactSaveRequest represents the data supplied by an external renderer.
type ArtifactSaveRequest struct {
	RenderedText string  `binding:"required" json:"rendered_text"`
	VisualPath   *string `json:"visual_path,omitempty"`
	Humanized    bool    `json:"humanized"`
}

// Validate checks the save request fields.
func (r *ArtifactSaveRequest) Validate() error {
	if r.RenderedText == "" {
		return fmt.Errorf("%w: rendered_text is required", ErrValidation)
	}
	return nil
}
