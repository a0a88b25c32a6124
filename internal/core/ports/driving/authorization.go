package driving

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
)

// AuthorizationService drives the marketplace OAuth flow for one browser session.
// Every operation that mutates the session persists it before returning.
type AuthorizationService interface {
	// Start begins a PKCE authorization flow.
	// The pending authorization is persisted before the URL is returned,
	// so the caller can redirect immediately.
	Start(ctx context.Context, sess *domain.Session) (*StartResponse, error)

	// Callback completes the flow with the code and state from the provider redirect.
	Callback(ctx context.Context, sess *domain.Session, req CallbackRequest) error

	// Refresh exchanges the stored refresh token for new tokens.
	// The returned metadata never carries live credentials.
	Refresh(ctx context.Context, sess *domain.Session) (*RefreshResponse, error)

	// Logout removes all authorization artifacts from the session. Idempotent.
	Logout(ctx context.Context, sess *domain.Session) error

	// Status reports whether the session is authorized, without credentials.
	Status(sess *domain.Session) *StatusResponse

	// RequireAuthenticated returns ErrOAuthUnauthenticated unless the session
	// holds a non-empty access token. It never calls the remote server.
	RequireAuthenticated(sess *domain.Session) error

	// AuthorizedClient returns a marketplace API client bound to the session's
	// access token, or ErrOAuthUnauthenticated.
	AuthorizedClient(sess *domain.Session) (driven.APIClient, error)
}

// StartResponse contains the authorization redirect target.
type StartResponse struct {
	// AuthorizationURL is the URL to redirect the browser to.
	AuthorizationURL string `json:"authorization_url"`
}

// CallbackRequest represents the OAuth callback from the provider.
type CallbackRequest struct {
	// Code is the authorization code from the provider.
	Code string `json:"code"`

	// State is the CSRF token returned by the provider.
	State string `json:"state"`

	// Error is set if the provider returned an error.
	Error string `json:"error,omitempty"`

	// ErrorDescription provides details about the error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// RedactedValue replaces credentials in responses.
const RedactedValue = "***redacted***"

// TokenMetadata is the browser-safe view of a token record.
type TokenMetadata struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	AccountID    string    `json:"account_id,omitempty"`
	ObtainedAt   time.Time `json:"obtained_at"`
}

// RefreshResponse is returned after a successful refresh.
type RefreshResponse struct {
	OK     bool           `json:"ok"`
	Tokens *TokenMetadata `json:"tokens"`
}

// StatusResponse describes the authorization state of a session.
type StatusResponse struct {
	Authenticated bool       `json:"authenticated"`
	AccountID     string     `json:"account_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
	CanRefresh    bool       `json:"can_refresh"`
}

// OAuthError represents an OAuth-specific error.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// Common OAuth errors
var (
	ErrOAuthInvalidState      = &OAuthError{Code: "invalid_state", Description: "The state parameter is missing, invalid or already used"}
	ErrOAuthExchangeFailed    = &OAuthError{Code: "exchange_failed", Description: "The token endpoint rejected the request"}
	ErrOAuthNoRefreshToken    = &OAuthError{Code: "no_refresh_token", Description: "No refresh token is stored for this session"}
	ErrOAuthUnauthenticated   = &OAuthError{Code: "unauthenticated", Description: "The session is not authorized with the marketplace"}
	ErrOAuthRemoteUnavailable = &OAuthError{Code: "remote_unavailable", Description: "The authorization server could not be reached"}
)

// ErrSessionPersistence indicates the session backend failed to store the session.
var ErrSessionPersistence = errors.New("session persistence failed")
