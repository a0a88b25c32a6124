package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
	"github.com/custodia-labs/shopgate/internal/core/ports/driving"
)

// Ensure authorizationService implements AuthorizationService
var _ driving.AuthorizationService = (*authorizationService)(nil)

// AuthorizationServiceConfig holds configuration for the authorization service.
type AuthorizationServiceConfig struct {
	// SessionStore persists sessions between requests.
	SessionStore driven.SessionStore

	// Provider talks to the marketplace authorization server.
	Provider driven.OAuthProvider

	// ClientFactory builds authorized marketplace API clients.
	ClientFactory driven.APIClientFactory

	// Logger receives diagnostic output. Defaults to slog.Default().
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// authorizationService implements the AuthorizationService interface.
type authorizationService struct {
	sessionStore  driven.SessionStore
	provider      driven.OAuthProvider
	clientFactory driven.APIClientFactory
	logger        *slog.Logger
	now           func() time.Time
}

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService(cfg AuthorizationServiceConfig) driving.AuthorizationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &authorizationService{
		sessionStore:  cfg.SessionStore,
		provider:      cfg.Provider,
		clientFactory: cfg.ClientFactory,
		logger:        logger.With("component", "authorization"),
		now:           now,
	}
}

// Start generates state and PKCE credentials, binds them to the session and
// persists the session before handing back the authorization URL.
func (s *authorizationService) Start(ctx context.Context, sess *domain.Session) (*driving.StartResponse, error) {
	state, err := RandomToken(stateBytes)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	verifier, err := RandomToken(verifierBytes)
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}
	challenge := ChallengeFromVerifier(verifier)

	// A second start replaces the first; the earlier state can no longer complete.
	sess.PendingAuthorization = &domain.PendingAuthorization{
		State:     state,
		Verifier:  verifier,
		CreatedAt: s.now(),
	}

	// The callback can arrive before an unflushed write lands, so this must
	// complete before the redirect is issued.
	if err := s.sessionStore.Save(ctx, sess); err != nil {
		s.logger.Error("save session before authorization redirect",
			"session", sessionRef(sess), "error", err)
		return nil, fmt.Errorf("%w: %v", driving.ErrSessionPersistence, err)
	}

	s.logger.Info("authorization flow started", "session", sessionRef(sess))

	return &driving.StartResponse{
		AuthorizationURL: s.provider.BuildAuthURL(state, challenge),
	}, nil
}

// Callback validates the returned state against the pending authorization,
// exchanges the code and stores the resulting tokens.
func (s *authorizationService) Callback(ctx context.Context, sess *domain.Session, req driving.CallbackRequest) error {
	if req.Error != "" {
		s.logger.Warn("provider returned authorization error",
			"session", sessionRef(sess), "error", req.Error, "description", req.ErrorDescription)
	}

	pending := sess.PendingAuthorization
	if pending == nil || req.Code == "" || req.State == "" {
		return driving.ErrOAuthInvalidState
	}
	if subtle.ConstantTimeCompare([]byte(req.State), []byte(pending.State)) != 1 {
		s.logger.Warn("authorization state mismatch", "session", sessionRef(sess))
		return driving.ErrOAuthInvalidState
	}

	token, err := s.provider.ExchangeCode(ctx, req.Code, pending.Verifier)
	if err != nil {
		return s.remoteError("code exchange", sess, err)
	}
	if token.AccessToken == "" {
		s.logger.Error("code exchange returned no access token", "session", sessionRef(sess))
		return driving.ErrOAuthExchangeFailed
	}

	sess.SetTokens(token, s.now())
	sess.PendingAuthorization = nil

	if err := s.sessionStore.Save(ctx, sess); err != nil {
		s.logger.Error("save session after code exchange",
			"session", sessionRef(sess), "error", err)
		return fmt.Errorf("%w: %v", driving.ErrSessionPersistence, err)
	}

	s.logger.Info("authorization flow completed",
		"session", sessionRef(sess),
		"account_id", sess.TokenRecord.AccountID,
		"expires_in", sess.TokenRecord.ExpiresIn)
	return nil
}

// Refresh obtains a new access token with the stored refresh token and merges
// it over the existing record.
func (s *authorizationService) Refresh(ctx context.Context, sess *domain.Session) (*driving.RefreshResponse, error) {
	if sess.TokenRecord == nil || sess.TokenRecord.RefreshToken == "" {
		return nil, driving.ErrOAuthNoRefreshToken
	}

	token, err := s.provider.RefreshToken(ctx, sess.TokenRecord.RefreshToken)
	if err != nil {
		return nil, s.remoteError("token refresh", sess, err)
	}

	sess.MergeTokens(token, s.now())

	if err := s.sessionStore.Save(ctx, sess); err != nil {
		s.logger.Error("save session after refresh",
			"session", sessionRef(sess), "error", err)
		return nil, fmt.Errorf("%w: %v", driving.ErrSessionPersistence, err)
	}

	s.logger.Info("access token refreshed",
		"session", sessionRef(sess),
		"refresh_rotated", token.RefreshToken != "")

	return &driving.RefreshResponse{
		OK:     true,
		Tokens: redact(sess.TokenRecord),
	}, nil
}

// Logout clears the token record and any pending authorization.
func (s *authorizationService) Logout(ctx context.Context, sess *domain.Session) error {
	sess.ClearTokens()
	if err := s.sessionStore.Save(ctx, sess); err != nil {
		s.logger.Error("save session after logout", "session", sessionRef(sess), "error", err)
		return fmt.Errorf("%w: %v", driving.ErrSessionPersistence, err)
	}
	return nil
}

// Status reports the authorization state of the session.
func (s *authorizationService) Status(sess *domain.Session) *driving.StatusResponse {
	if !sess.HasAccessToken() {
		return &driving.StatusResponse{}
	}
	rec := sess.TokenRecord
	resp := &driving.StatusResponse{
		Authenticated: true,
		AccountID:     rec.AccountID,
		Expired:       rec.IsExpired(s.now()),
		CanRefresh:    rec.RefreshToken != "",
	}
	if exp := rec.ExpiresAt(); !exp.IsZero() {
		resp.ExpiresAt = &exp
	}
	return resp
}

// RequireAuthenticated gates access to marketplace data routes.
func (s *authorizationService) RequireAuthenticated(sess *domain.Session) error {
	return RequireAuthenticated(sess)
}

// AuthorizedClient returns an API client carrying the session's access token.
func (s *authorizationService) AuthorizedClient(sess *domain.Session) (driven.APIClient, error) {
	if err := RequireAuthenticated(sess); err != nil {
		return nil, err
	}
	return s.clientFactory.NewClient(sess.TokenRecord), nil
}

// RequireAuthenticated passes iff the session holds a non-empty access token.
// It never refreshes or validates the token remotely; a stale token is
// discovered when the marketplace rejects the call.
func RequireAuthenticated(sess *domain.Session) error {
	if !sess.HasAccessToken() {
		return driving.ErrOAuthUnauthenticated
	}
	return nil
}

// remoteError logs a failed token endpoint call with its diagnostic detail and
// translates it into an opaque error for the caller.
func (s *authorizationService) remoteError(op string, sess *domain.Session, err error) error {
	var endpointErr *driven.TokenEndpointError
	if errors.As(err, &endpointErr) {
		s.logger.Error(op+" rejected by token endpoint",
			"session", sessionRef(sess),
			"status", endpointErr.StatusCode,
			"code", endpointErr.Code,
			"body", endpointErr.Body)
		return driving.ErrOAuthExchangeFailed
	}
	if errors.Is(err, domain.ErrServiceUnavailable) {
		s.logger.Warn(op+" failed: token endpoint unavailable",
			"session", sessionRef(sess), "error", err)
		return driving.ErrOAuthRemoteUnavailable
	}
	s.logger.Error(op+" failed", "session", sessionRef(sess), "error", err)
	return driving.ErrOAuthExchangeFailed
}

// redact converts a token record into browser-safe metadata.
func redact(rec *domain.TokenRecord) *driving.TokenMetadata {
	meta := &driving.TokenMetadata{
		AccessToken: driving.RedactedValue,
		ExpiresIn:   rec.ExpiresIn,
		TokenType:   rec.TokenType,
		Scope:       rec.Scope,
		AccountID:   rec.AccountID,
		ObtainedAt:  rec.ObtainedAt,
	}
	if rec.RefreshToken != "" {
		meta.RefreshToken = driving.RedactedValue
	}
	return meta
}

// sessionRef returns a short, non-addressable reference to a session for logs.
func sessionRef(sess *domain.Session) string {
	if sess == nil {
		return ""
	}
	if len(sess.ID) > 8 {
		return sess.ID[:8]
	}
	return sess.ID
}
