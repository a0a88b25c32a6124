package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// stateBytes is the entropy of the anti-forgery state (≥16 required).
	stateBytes = 24
	// verifierBytes is the entropy of the PKCE code verifier (≥32 required).
	// 48 bytes encode to 64 characters, inside RFC 7636's 43-128 range.
	verifierBytes = 48
)

// RandomToken returns byteLength cryptographically random bytes encoded as
// unpadded URL-safe base64.
func RandomToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("random token length must be positive, got %d", byteLength)
	}
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ChallengeFromVerifier creates a PKCE code challenge from a verifier (S256 method).
func ChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
