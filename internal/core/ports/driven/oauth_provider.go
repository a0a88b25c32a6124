package driven

import (
	"context"
	"fmt"

	"github.com/custodia-labs/shopgate/internal/core/domain"
)

// OAuthProvider talks to the marketplace authorization server.
// The authorization endpoint and the token endpoint are fixed per deployment;
// code exchange and refresh share the token endpoint and differ by grant type.
type OAuthProvider interface {
	// BuildAuthURL constructs the authorization redirect URL.
	// Parameters:
	//   - state: CSRF protection token
	//   - codeChallenge: PKCE code challenge (S256 hash of code verifier)
	BuildAuthURL(state, codeChallenge string) string

	// ExchangeCode exchanges an authorization code and its PKCE verifier for tokens.
	// Returns *TokenEndpointError when the endpoint answers with a non-success status,
	// and an error wrapping domain.ErrServiceUnavailable when it cannot be reached.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.TokenResponse, error)

	// RefreshToken obtains new tokens with a refresh token.
	// Errors follow the same contract as ExchangeCode.
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResponse, error)
}

// TokenEndpointError is a non-success answer from the token endpoint.
// Body is the raw remote payload; it is for server-side logs only.
type TokenEndpointError struct {
	StatusCode int
	Code       string
	Body       string
}

func (e *TokenEndpointError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("token endpoint returned %d", e.StatusCode)
}
