package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
)

// Ensure CookieCodec implements SessionCookieCodec
var _ driven.SessionCookieCodec = (*CookieCodec)(nil)

// hkdfInfo separates the cookie signing key from any other key derived from
// the same secret.
const hkdfInfo = "shopgate session cookie v1"

// ErrEmptySecret is returned when no signing secret is configured.
var ErrEmptySecret = errors.New("session secret must not be empty")

// cookieClaims is the JWT payload of the session cookie
type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs session cookies as HS256 JWTs
type CookieCodec struct {
	key []byte
}

// NewCookieCodec derives a 32-byte signing key from secret with HKDF-SHA256.
func NewCookieCodec(secret string) (*CookieCodec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	return &CookieCodec{key: key}, nil
}

// Encode creates a signed cookie value
func (c *CookieCodec) Encode(sessionID string, expiresAt time.Time) (string, error) {
	claims := cookieClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.key)
}

// Decode validates a cookie value and extracts the session ID
func (c *CookieCodec) Decode(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &cookieClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*cookieClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("session cookie claims: %w", domain.ErrInvalidInput)
	}
	return claims.SessionID, nil
}
