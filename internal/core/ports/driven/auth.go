package driven

import "time"

// SessionCookieCodec signs and verifies the session reference carried in
// the browser cookie. This does NOT handle storage - use SessionStore for
// session persistence.
type SessionCookieCodec interface {
	// Encode produces a tamper-evident cookie value for sessionID.
	Encode(sessionID string, expiresAt time.Time) (string, error)

	// Decode verifies value and returns the session ID it carries.
	// Any forged, malformed or expired value is an error.
	Decode(value string) (string, error)
}
