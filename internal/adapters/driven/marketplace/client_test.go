package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T, handler http.HandlerFunc) *ClientFactory {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("test-api-key", "")
	cfg.APIBaseURL = srv.URL + "/v3/"
	return NewClientFactory(cfg)
}

func TestClientFactory_Defaults(t *testing.T) {
	f := NewClientFactory(DefaultConfig("test-api-key", ""))

	assert.Equal(t, DefaultAPIBaseURL, f.baseURL)
	assert.Equal(t, 15*time.Second, f.httpClient.Timeout)
}

func TestClientFactory_SharesTransport(t *testing.T) {
	f := NewClientFactory(DefaultConfig("test-api-key", ""))

	a := f.NewClient(&domain.TokenRecord{AccessToken: "1.a"}).(*Client)
	b := f.NewClient(&domain.TokenRecord{AccessToken: "2.b"}).(*Client)

	assert.NotSame(t, a, b)
	assert.Same(t, a.httpClient, b.httpClient)
	assert.Equal(t, "1.a", a.accessToken)
	assert.Equal(t, "2.b", b.accessToken)
}

func TestClient_Get_Headers(t *testing.T) {
	var got *http.Request
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":1,"results":[{"shop_id":99}]}`))
	})

	client := f.NewClient(&domain.TokenRecord{AccessToken: "123.xyz"})

	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "/application/users/123/shops", &out))

	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/v3/application/users/123/shops", got.URL.Path)
	assert.Equal(t, "Bearer 123.xyz", got.Header.Get("Authorization"))
	assert.Equal(t, "test-api-key", got.Header.Get("x-api-key"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.EqualValues(t, 1, out["count"])
}

func TestClient_Get_QueryString(t *testing.T) {
	var got *http.Request
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(`{}`))
	})

	client := f.NewClient(&domain.TokenRecord{AccessToken: "1.a"})
	require.NoError(t, client.Get(context.Background(), "application/shops/7/receipts?limit=25&was_paid=true", nil))

	assert.Equal(t, "/v3/application/shops/7/receipts", got.URL.Path)
	assert.Equal(t, "25", got.URL.Query().Get("limit"))
	assert.Equal(t, "true", got.URL.Query().Get("was_paid"))
}

func TestClient_Post_Body(t *testing.T) {
	var body map[string]any
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"listing_id":555}`))
	})

	client := f.NewClient(&domain.TokenRecord{AccessToken: "1.a"})

	var out map[string]any
	err := client.Post(context.Background(), "application/shops/7/listings", map[string]any{"title": "Mug", "state": "DRAFT"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Mug", body["title"])
	assert.Equal(t, "DRAFT", body["state"])
	assert.EqualValues(t, 555, out["listing_id"])
}

func TestClient_APIError(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_token"}`))
	})

	client := f.NewClient(&domain.TokenRecord{AccessToken: "stale"})
	err := client.Get(context.Background(), "application/users/1/shops", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid_token")
	assert.NotContains(t, apiErr.Error(), "invalid_token")
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/v3/"
	srv.Close()

	cfg := DefaultConfig("test-api-key", "")
	cfg.APIBaseURL = base
	client := NewClientFactory(cfg).NewClient(&domain.TokenRecord{AccessToken: "1.a"})

	err := client.Get(context.Background(), "application/users/1/shops", nil)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable), "expected unavailable, got %v", err)
}

func TestClient_EmptyBody(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	client := f.NewClient(&domain.TokenRecord{AccessToken: "1.a"})

	var out map[string]any
	assert.NoError(t, client.Get(context.Background(), "anything", &out))
}
