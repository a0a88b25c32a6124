package domain

import (
	"strings"
	"time"
)

// Session is the server-side record addressed by the browser's session cookie.
// It holds at most one of PendingAuthorization (between flow start and
// callback) and TokenRecord (after a successful callback).
type Session struct {
	ID                   string                `json:"id"`
	PendingAuthorization *PendingAuthorization `json:"pending_authorization,omitempty"`
	TokenRecord          *TokenRecord          `json:"token_record,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	ExpiresAt            time.Time             `json:"expires_at"`
}

// NewSession creates an empty session that expires after ttl.
func NewSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session has reached ExpiresAt at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// PendingAuthorization binds an in-flight authorization request to the session.
// It is single-use: the callback consumes it.
type PendingAuthorization struct {
	State     string    `json:"state"`
	Verifier  string    `json:"verifier"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenRecord holds the credentials obtained from the marketplace token endpoint.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	AccountID    string    `json:"account_id,omitempty"`
	ObtainedAt   time.Time `json:"obtained_at"`
}

// ExpiresAt returns when the access token stops being valid, or the zero
// time when the token endpoint did not report a lifetime.
func (t *TokenRecord) ExpiresAt() time.Time {
	if t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return t.ObtainedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// IsExpired reports whether the access token has passed its reported lifetime.
// Tokens without a lifetime never expire locally.
func (t *TokenRecord) IsExpired(now time.Time) bool {
	exp := t.ExpiresAt()
	return !exp.IsZero() && now.After(exp)
}

// TokenResponse is the typed body of a token endpoint response.
// Empty fields mean the endpoint omitted them.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
	Scope        string
}

// SetTokens replaces the token record with one built from resp.
func (s *Session) SetTokens(resp *TokenResponse, now time.Time) {
	s.TokenRecord = &TokenRecord{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		AccountID:    AccountIDFromAccessToken(resp.AccessToken),
		ObtainedAt:   now,
	}
}

// MergeTokens applies a refresh response over the existing record.
// Fields present in resp win; a missing refresh token keeps the stored one.
func (s *Session) MergeTokens(resp *TokenResponse, now time.Time) {
	merged := TokenRecord{}
	if s.TokenRecord != nil {
		merged = *s.TokenRecord
	}
	if resp.AccessToken != "" {
		merged.AccessToken = resp.AccessToken
	}
	if resp.RefreshToken != "" {
		merged.RefreshToken = resp.RefreshToken
	}
	if resp.ExpiresIn > 0 {
		merged.ExpiresIn = resp.ExpiresIn
	}
	if resp.TokenType != "" {
		merged.TokenType = resp.TokenType
	}
	if resp.Scope != "" {
		merged.Scope = resp.Scope
	}
	merged.AccountID = AccountIDFromAccessToken(merged.AccessToken)
	merged.ObtainedAt = now
	s.TokenRecord = &merged
}

// ClearTokens removes the token record and any pending authorization.
func (s *Session) ClearTokens() {
	s.TokenRecord = nil
	s.PendingAuthorization = nil
}

// HasAccessToken reports whether the session carries a usable access token.
func (s *Session) HasAccessToken() bool {
	return s != nil && s.TokenRecord != nil && s.TokenRecord.AccessToken != ""
}

// AccountIDFromAccessToken extracts the marketplace user ID from the leading
// dot-delimited segment of an access token. It returns "" when the segment is
// not all digits.
//
// This is a structural parse, not a verification: the token's signature is
// never checked here and the remote API is trusted to reject forged tokens.
// Replace it with a "who am I" call if that trust assumption is not acceptable.
func AccountIDFromAccessToken(accessToken string) string {
	prefix, _, _ := strings.Cut(accessToken, ".")
	if prefix == "" {
		return ""
	}
	for _, c := range prefix {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return prefix
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.PendingAuthorization != nil {
		p := *s.PendingAuthorization
		c.PendingAuthorization = &p
	}
	if s.TokenRecord != nil {
		t := *s.TokenRecord
		c.TokenRecord = &t
	}
	return &c
}
