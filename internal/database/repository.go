package database

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/scribeworks/contentq/internal/logger"
)

// PostgreSQL error codes the repository maps to domain errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Repository provides database operations for ideas, artifacts, and
// publication records. Safe for concurrent use; cross-process consistency
// comes from row locks and unique constraints, not in-process state.
type Repository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB, log logger.Logger) *Repository {
	return &Repository{db: db, logger: log}
}

// Ping verifies the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	pqErr := asPqError(err)
	return pqErr != nil && pqErr.Code == uniqueViolation
}

// asPqError unwraps err to a *pq.Error, or nil if it is not one.
func asPqError(err error) *pq.Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr
	}
	return nil
}
