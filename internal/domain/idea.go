// Package domain contains the core domain models for the content queue.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// IdeaStatus represents the lifecycle state of a content idea.
// Transitions are forward-only: pending -> generated -> published -> archived.
type IdeaStatus string

const (
	IdeaStatusPending   IdeaStatus = "pending"
	IdeaStatusGenerated IdeaStatus = "generated"
	IdeaStatusPublished IdeaStatus = "published"
	IdeaStatusArchived  IdeaStatus = "archived"
)

// statusOrder maps each status to its position in the lifecycle.
// Archived is terminal; nothing ever leaves it.
var statusOrder = map[IdeaStatus]int{
	IdeaStatusPending:   0,
	IdeaStatusGenerated: 1,
	IdeaStatusPublished: 2,
	IdeaStatusArchived:  3,
}

// CanTransition reports whether moving from s to next is a forward transition.
func (s IdeaStatus) CanTransition(next IdeaStatus) bool {
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// Urgency represents how time-sensitive a content idea is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Weight returns the sort weight of an urgency level (higher sorts first).
// Unknown values weigh zero and sort last.
func (u Urgency) Weight() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether u is one of the known urgency levels.
func (u Urgency) Valid() bool {
	return u.Weight() > 0
}

// DataPoints holds supporting facts for an idea, keyed by label.
// Stored as JSONB in PostgreSQL.
type DataPoints map[string]string

// Value implements driver.Valuer for JSONB storage.
func (d DataPoints) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (d *DataPoints) Scan(src any) error {
	if src == nil {
		*d = DataPoints{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("scan data points: unexpected type %T", src)
	}
	return json.Unmarshal(b, d)
}

// ContentIdea represents a unit of potential content awaiting rendering and publication.
type ContentIdea struct {
	ID             uuid.UUID      `db:"id"              json:"id"`
	Title          string         `db:"title"           json:"title"`
	ContentType    string         `db:"content_type"    json:"content_type"`
	Status         IdeaStatus     `db:"status"          json:"status"`
	Urgency        Urgency        `db:"urgency"         json:"urgency"`
	EstimatedReach int            `db:"estimated_reach" json:"estimated_reach"`
	Keywords       pq.StringArray `db:"keywords"        json:"keywords"`
	DataPoints     DataPoints     `db:"data_points"     json:"data_points"`
	CreatedAt      time.Time      `db:"created_at"      json:"created_at"`
}

// IdeaCreateRequest represents the data supplied by an external content generator.
type IdeaCreateRequest struct {
	Title          string            `binding:"required" json:"title"`
	ContentType    string            `json:"content_type"`
	Urgency        Urgency           `json:"urgency"`
	EstimatedReach int               `json:"estimated_reach"`
	Keywords       []string          `json:"keywords"`
	DataPoints     map[string]string `json:"data_points"`
}

// NewContentIdea builds a pending idea from a create request with validation.
// The id and created_at are server-assigned; urgency defaults to medium.
func NewContentIdea(req *IdeaCreateRequest) (*ContentIdea, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if req.EstimatedReach < 0 {
		return nil, fmt.Errorf("%w: estimated_reach must be non-negative, got %d",
			ErrValidation, req.EstimatedReach)
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = UrgencyMedium
	}
	if !urgency.Valid() {
		return nil, fmt.Errorf("%w: unknown urgency %q", ErrValidation, req.Urgency)
	}

	keywords := req.Keywords
	if keywords == nil {
		keywords = []string{} // Initialize to empty, never nil
	}
	dataPoints := DataPoints(req.DataPoints)
	if dataPoints == nil {
		dataPoints = DataPoints{}
	}

	return &ContentIdea{
		ID:             uuid.New(),
		Title:          req.Title,
		ContentType:    req.ContentType,
		Status:         IdeaStatusPending,
		Urgency:        urgency,
		EstimatedReach: req.EstimatedReach,
		Keywords:       pq.StringArray(keywords),
		DataPoints:     dataPoints,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
