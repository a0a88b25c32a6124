package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/domain"
)

// MockSessionStore is a mock implementation of SessionStore for testing.
// It stores copies so tests observe only what was explicitly saved.
type MockSessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.Session
	saveCalls int

	// SaveErr, when set, is returned by Save without storing anything.
	SaveErr error
	// GetErr, when set, is returned by Get.
	GetErr error
}

// NewMockSessionStore creates a new MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]*domain.Session),
	}
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if session.IsExpired(time.Now()) {
		return domain.ErrSessionExpired
	}
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session.Clone(), nil
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionStore) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockSessionStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*domain.Session)
	m.saveCalls = 0
	m.SaveErr = nil
	m.GetErr = nil
}

func (m *MockSessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SaveCalls returns how many times Save was invoked, including failed calls.
func (m *MockSessionStore) SaveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCalls
}

// Stored returns a copy of the persisted session, or nil.
func (m *MockSessionStore) Stored(id string) *domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id].Clone()
}
