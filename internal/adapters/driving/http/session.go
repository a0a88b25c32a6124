package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
)

const sessionContextKey contextKey = "session"

// DefaultSessionCookieName is used when no cookie name is configured.
const DefaultSessionCookieName = "shopgate.sid"

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName string
	TTL        time.Duration

	// Secure marks the cookie HTTPS-only. Enable in production.
	Secure bool
}

// SessionManager resolves the browser's session from its signed cookie and
// writes the cookie back once a session has been persisted.
type SessionManager struct {
	store  driven.SessionStore
	codec  driven.SessionCookieCodec
	cfg    SessionConfig
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(store driven.SessionStore, codec driven.SessionCookieCodec, cfg SessionConfig, logger *slog.Logger) *SessionManager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		store:  store,
		codec:  codec,
		cfg:    cfg,
		logger: logger.With("component", "session"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Load attaches the request's session to its context. A missing, forged or
// expired cookie yields a fresh session that exists only in memory until an
// operation persists it.
func (m *SessionManager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.resolve(r)
		if err != nil {
			m.logger.Error("load session", "error", err)
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionManager) resolve(r *http.Request) (*domain.Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return m.fresh(), nil
	}

	id, err := m.codec.Decode(cookie.Value)
	if err != nil {
		m.logger.Debug("discarding invalid session cookie", "error", err)
		return m.fresh(), nil
	}

	sess, err := m.store.Get(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return m.fresh(), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *SessionManager) fresh() *domain.Session {
	return domain.NewSession(m.newID(), m.now(), m.cfg.TTL)
}

// Commit writes the session cookie. Call it only after the session has been
// saved, so the cookie never references a record that does not exist.
func (m *SessionManager) Commit(w http.ResponseWriter, sess *domain.Session) error {
	value, err := m.codec.Encode(sess.ID, sess.ExpiresAt)
	if err != nil {
		return err
	}

	maxAge := int(sess.ExpiresAt.Sub(m.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// GetSession retrieves the session from request context
func GetSession(ctx context.Context) *domain.Session {
	if ctx == nil {
		return nil
	}
	sess, ok := ctx.Value(sessionContextKey).(*domain.Session)
	if !ok {
		return nil
	}
	return sess
}
