// Package memory provides a process-local session store for development.
// Sessions are lost on restart and are not shared between instances.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions in a map guarded by a mutex.
// Values are cloned on the way in and out so callers never share state.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

// NewSessionStore creates an empty in-memory store. A nil logger disables
// the startup warning.
func NewSessionStore(logger *slog.Logger) *SessionStore {
	if logger != nil {
		logger.Warn("using in-memory session store: sessions are lost on restart and not shared between instances")
	}
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Save stores a copy of the session.
func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	if session.IsExpired(s.now()) {
		return domain.ErrSessionExpired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Get returns a copy of the session, or domain.ErrNotFound if it is
// missing or expired. Expired entries are evicted on read.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if sess.IsExpired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	return sess.Clone(), nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close drops all sessions.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*domain.Session)
	return nil
}
