package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
)

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 4096

var (
	_ driven.APIClientFactory = (*ClientFactory)(nil)
	_ driven.APIClient        = (*Client)(nil)
)

// APIError is a non-2xx answer from the resource API.
type APIError = driven.APIError

// ClientFactory builds per-session API clients over one pooled transport.
type ClientFactory struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClientFactory creates a factory for the configured API base URL.
func NewClientFactory(cfg Config) *ClientFactory {
	cfg = cfg.withDefaults()
	return &ClientFactory{
		baseURL: cfg.APIBaseURL,
		apiKey:  cfg.ClientID,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(),
		},
	}
}

// NewClient returns a client carrying the record's access token.
func (f *ClientFactory) NewClient(record *domain.TokenRecord) driven.APIClient {
	return &Client{
		baseURL:     f.baseURL,
		apiKey:      f.apiKey,
		accessToken: record.AccessToken,
		httpClient:  f.httpClient,
	}
}

// Client provides marketplace API operations for one session.
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	httpClient  *http.Client
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimPrefix(path, "/"), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
