package driven

import (
	"context"

	"github.com/custodia-labs/shopgate/internal/core/domain"
)

// SessionStore handles session persistence (Redis, PostgreSQL, or memory for development).
// It is the single source of truth for session state and must be safe for
// concurrent use by multiple processes. Writes are last-write-wins.
type SessionStore interface {
	// Save stores a session with TTL based on ExpiresAt.
	// Returns domain.ErrSessionExpired, without writing, once ExpiresAt has passed.
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound if the session does not exist or has expired.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete deletes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the backend's connections.
	Close() error
}
