// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend is a typed client for the AI/search backend. Every
// endpoint is a JSON POST to BaseURL joined with the endpoint name.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paperwork/internal/httputil"
	"github.com/pdiddy/paperwork/pkg/types"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000/"

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 512

// Client calls the backend endpoints.
type Client struct {
	// BaseURL is the backend root, with or without a trailing slash.
	BaseURL string

	// HTTP is the underlying client. Its Timeout bounds every call.
	HTTP *http.Client

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// MaxRetries bounds retries of rate-limited and transient failures.
	MaxRetries int

	// Logger receives request diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// New builds a Client from configuration.
func New(cfg types.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    base,
		HTTP:       &http.Client{Timeout: timeout},
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	}
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// APIError reports a 2xx response whose body carried an error message.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s: %s", e.Endpoint, e.Message)
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Client) endpointURL(endpoint string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + endpoint
}

// post sends in as JSON and decodes the response into out (when non-nil).
// transient enables retrying 5xx gateway errors and transport failures.
func (c *Client) post(ctx context.Context, endpoint string, in, out any, transient bool) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, client, req, httputil.Policy{
		MaxRetries: c.MaxRetries,
		Transient:  transient,
		Logger:     c.logger(),
	})
	if err != nil {
		return fmt.Errorf("backend %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger().Debug("backend call",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}
