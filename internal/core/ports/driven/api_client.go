package driven

import (
	"context"
	"fmt"

	"github.com/custodia-labs/shopgate/internal/core/domain"
)

// APIClient calls the marketplace resource API on behalf of one session.
type APIClient interface {
	// Get issues a GET against path (relative to the API base URL) and decodes
	// the JSON response into out.
	Get(ctx context.Context, path string, out any) error

	// Post sends body as JSON to path and decodes the JSON response into out.
	Post(ctx context.Context, path string, body, out any) error
}

// APIClientFactory builds an APIClient bound to a token record.
// Each call returns a new client; implementations may share a pooled transport.
type APIClientFactory interface {
	NewClient(record *domain.TokenRecord) APIClient
}

// APIError is a non-2xx answer from the resource API.
// Body is the raw remote payload; it is for server-side logs only.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace api returned %d", e.StatusCode)
}
