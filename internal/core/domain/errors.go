package domain

import "errors"

// Sentinel errors shared by services and adapters. Compare with errors.Is.
var (
	// ErrNotFound is returned by session stores for missing or expired sessions.
	ErrNotFound = errors.New("not found")

	// ErrSessionExpired is returned by session stores asked to save a session
	// past its ExpiresAt. Nothing is written.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidInput marks malformed data crossing a boundary, such as a
	// cookie whose claims do not name a session.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable wraps transport failures and timeouts talking to
	// the marketplace.
	ErrServiceUnavailable = errors.New("service unavailable")
)
