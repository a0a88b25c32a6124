// Package marketplace adapts the Etsy-style Open API v3: its OAuth 2.0
// authorization server and its resource API.
package marketplace

import (
	"net/http"
	"strings"
	"time"
)

// Default endpoints of the public marketplace deployment.
const (
	DefaultAuthURL    = "https://www.etsy.com/oauth/connect"
	DefaultTokenURL   = "https://api.etsy.com/v3/public/oauth/token"
	DefaultAPIBaseURL = "https://api.etsy.com/v3/"

	// DefaultTimeout bounds every outbound call, token endpoint included.
	DefaultTimeout = 15 * time.Second
)

// DefaultScopes are requested when none are configured.
var DefaultScopes = []string{"shops_r", "listings_r"}

// Config contains configuration for the marketplace adapters.
type Config struct {
	// ClientID is the application's API key. It doubles as the OAuth client
	// ID and the x-api-key header value.
	ClientID string

	// RedirectURI must match the callback registered with the marketplace.
	RedirectURI string

	// Scopes requested during authorization.
	Scopes []string

	// AuthURL is the authorization endpoint.
	AuthURL string

	// TokenURL is the token endpoint used for code exchange and refresh.
	TokenURL string

	// APIBaseURL is the resource API root. A trailing slash is added if missing.
	APIBaseURL string

	// Timeout for each outbound request.
	Timeout time.Duration
}

// DefaultConfig returns a configuration pointing at the public endpoints.
func DefaultConfig(clientID, redirectURI string) Config {
	return Config{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scopes:      DefaultScopes,
		AuthURL:     DefaultAuthURL,
		TokenURL:    DefaultTokenURL,
		APIBaseURL:  DefaultAPIBaseURL,
		Timeout:     DefaultTimeout,
	}
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if !strings.HasSuffix(c.APIBaseURL, "/") {
		c.APIBaseURL += "/"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// newTransport returns the pooled transport shared by every client an
// adapter hands out.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 20
	t.IdleConnTimeout = 90 * time.Second
	return t
}
