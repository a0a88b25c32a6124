package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
	"golang.org/x/oauth2"
)

// Ensure OAuthProvider implements the interface.
var _ driven.OAuthProvider = (*OAuthProvider)(nil)

// OAuthProvider talks to the marketplace token endpoint through x/oauth2.
// The application is a public client: no secret, client_id in the form body.
type OAuthProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
	timeout    time.Duration
}

// NewOAuthProvider creates a provider for the configured endpoints.
func NewOAuthProvider(cfg Config) *OAuthProvider {
	cfg = cfg.withDefaults()
	return &OAuthProvider{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(),
		},
		timeout: cfg.Timeout,
	}
}

// BuildAuthURL constructs the authorization URL with the S256 challenge.
func (p *OAuthProvider) BuildAuthURL(state, codeChallenge string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges an authorization code for tokens.
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.TokenResponse, error) {
	ctx, cancel := p.tokenContext(ctx)
	defer cancel()

	tok, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, classifyTokenError("exchange code", err)
	}
	return tokenResponse(tok), nil
}

// RefreshToken obtains new tokens with a refresh token.
func (p *OAuthProvider) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResponse, error) {
	ctx, cancel := p.tokenContext(ctx)
	defer cancel()

	tok, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, classifyTokenError("refresh token", err)
	}

	resp := tokenResponse(tok)
	// x/oauth2 echoes the old refresh token when the endpoint omits one;
	// report only a rotated value so the merge is explicit.
	if resp.RefreshToken == refreshToken {
		resp.RefreshToken = ""
	}
	return resp, nil
}

// tokenContext bounds the call and routes it through the pooled client.
func (p *OAuthProvider) tokenContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return context.WithTimeout(ctx, p.timeout)
}

// tokenResponse converts an x/oauth2 token into the domain shape.
func tokenResponse(tok *oauth2.Token) *domain.TokenResponse {
	resp := &domain.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    int(tok.ExpiresIn),
	}
	if resp.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		resp.ExpiresIn = int(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	return resp
}

// classifyTokenError maps x/oauth2 failures onto the port's error contract.
func classifyTokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		endpointErr := &driven.TokenEndpointError{
			Code: retrieveErr.ErrorCode,
			Body: string(retrieveErr.Body),
		}
		if retrieveErr.Response != nil {
			endpointErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return fmt.Errorf("%s: %w", op, endpointErr)
	}

	if isTransportError(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isTransportError reports failures to reach the remote server at all.
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
