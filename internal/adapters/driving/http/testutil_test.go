package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/shopgate/internal/core/ports/driving"
)

// Mock services for testing

type mockAuthorizationService struct {
	startFn            func(ctx context.Context, sess *domain.Session) (*driving.StartResponse, error)
	callbackFn         func(ctx context.Context, sess *domain.Session, req driving.CallbackRequest) error
	refreshFn          func(ctx context.Context, sess *domain.Session) (*driving.RefreshResponse, error)
	logoutFn           func(ctx context.Context, sess *domain.Session) error
	statusFn           func(sess *domain.Session) *driving.StatusResponse
	authorizedClientFn func(sess *domain.Session) (driven.APIClient, error)
}

func (m *mockAuthorizationService) Start(ctx context.Context, sess *domain.Session) (*driving.StartResponse, error) {
	if m.startFn != nil {
		return m.startFn(ctx, sess)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthorizationService) Callback(ctx context.Context, sess *domain.Session, req driving.CallbackRequest) error {
	if m.callbackFn != nil {
		return m.callbackFn(ctx, sess, req)
	}
	return errors.New("not implemented")
}

func (m *mockAuthorizationService) Refresh(ctx context.Context, sess *domain.Session) (*driving.RefreshResponse, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, sess)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthorizationService) Logout(ctx context.Context, sess *domain.Session) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sess)
	}
	return nil
}

func (m *mockAuthorizationService) Status(sess *domain.Session) *driving.StatusResponse {
	if m.statusFn != nil {
		return m.statusFn(sess)
	}
	return &driving.StatusResponse{}
}

func (m *mockAuthorizationService) RequireAuthenticated(sess *domain.Session) error {
	if !sess.HasAccessToken() {
		return driving.ErrOAuthUnauthenticated
	}
	return nil
}

func (m *mockAuthorizationService) AuthorizedClient(sess *domain.Session) (driven.APIClient, error) {
	if m.authorizedClientFn != nil {
		return m.authorizedClientFn(sess)
	}
	return nil, driving.ErrOAuthUnauthenticated
}

// mockAPIClient records calls and replays canned responses
type mockAPIClient struct {
	getFn  func(ctx context.Context, path string, out any) error
	postFn func(ctx context.Context, path string, body, out any) error
}

func (m *mockAPIClient) Get(ctx context.Context, path string, out any) error {
	if m.getFn != nil {
		return m.getFn(ctx, path, out)
	}
	return errors.New("not implemented")
}

func (m *mockAPIClient) Post(ctx context.Context, path string, body, out any) error {
	if m.postFn != nil {
		return m.postFn(ctx, path, body, out)
	}
	return errors.New("not implemented")
}

// plainCodec is an unsigned cookie codec: "sid|unix-expiry".
type plainCodec struct{}

func (plainCodec) Encode(sessionID string, expiresAt time.Time) (string, error) {
	return sessionID + "|" + expiresAt.UTC().Format(time.RFC3339), nil
}

func (plainCodec) Decode(value string) (string, error) {
	sid, exp, ok := strings.Cut(value, "|")
	if !ok || sid == "" {
		return "", errors.New("malformed cookie")
	}
	t, err := time.Parse(time.RFC3339, exp)
	if err != nil || time.Now().After(t) {
		return "", errors.New("expired cookie")
	}
	return sid, nil
}

// failingCodec cannot encode cookies.
type failingCodec struct{ plainCodec }

func (failingCodec) Encode(string, time.Time) (string, error) {
	return "", errors.New("signing unavailable")
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// setupTestServer creates a server around the given service with a mock store
func setupTestServer(svc driving.AuthorizationService) (*Server, *mocks.MockSessionStore) {
	return setupTestServerWithCodec(svc, plainCodec{})
}

func setupTestServerWithCodec(svc driving.AuthorizationService, codec driven.SessionCookieCodec) (*Server, *mocks.MockSessionStore) {
	store := mocks.NewMockSessionStore()
	sessions := NewSessionManager(store, codec, SessionConfig{TTL: time.Hour}, discardLogger)
	return NewServer(DefaultConfig(), svc, sessions, nil, discardLogger), store
}

// seedSession stores a session and returns a cookie that addresses it
func seedSession(store *mocks.MockSessionStore, sess *domain.Session) *http.Cookie {
	_ = store.Save(context.Background(), sess)
	value, _ := plainCodec{}.Encode(sess.ID, sess.ExpiresAt)
	return &http.Cookie{Name: DefaultSessionCookieName, Value: value}
}

func authorizedSession(id string) *domain.Session {
	sess := domain.NewSession(id, time.Now(), time.Hour)
	sess.SetTokens(&domain.TokenResponse{AccessToken: "4242.token", RefreshToken: "refresh"}, time.Now())
	return sess
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == DefaultSessionCookieName {
			return c
		}
	}
	return nil
}
