// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api provides a thin HTTP client for the Profitelligence data
// API. It attaches the caller's resolved credential, bounds response
// sizes, and surfaces non-2xx responses as typed errors. Response
// bodies are passed through opaquely.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/profitelligence/mcp-server/pkg/auth"
	"github.com/profitelligence/mcp-server/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second

	// Investigate responses carry full financial statements; allow a
	// larger body than the OAuth endpoints do.
	maxResponseSize = 10 * 1024 * 1024

	userAgent = "Profitelligence-MCP/1.0"
)

// Error describes a failed API request.
type Error struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api request failed with status %d", e.StatusCode)
}

// Client issues authenticated requests against the data API. A client
// is bound to one credential; create one per request.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

// ClientOption configures optional client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient builds a client for the given base URL and credential.
// API keys go out as "Authorization: ApiKey <key>"; every other scheme
// as a Bearer token.
func NewClient(baseURL string, cred auth.ResolvedCredential, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cred.Value == "" {
		return nil, fmt.Errorf("credential value is required")
	}

	var header string
	switch cred.Scheme {
	case auth.SchemeAPIKey:
		if !strings.HasPrefix(cred.Value, "pk_live_") && !strings.HasPrefix(cred.Value, "pk_test_") {
			return nil, fmt.Errorf("API key must start with 'pk_live_' or 'pk_test_'")
		}
		header = "ApiKey " + cred.Value
	default:
		header = "Bearer " + cred.Value
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: header,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get issues a GET request against the given API path and returns the
// raw response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	logger.Debugw("data API request", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
			Body:       string(body),
		}
		logger.Warnw("data API error", "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	return json.RawMessage(body), nil
}

// errorMessage pulls a human-readable message out of an error body.
// The API uses {"error": ..., "message": ...}; either field may be
// absent.
func errorMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	switch {
	case parsed.Error != "" && parsed.Message != "":
		return parsed.Error + " - " + parsed.Message
	case parsed.Error != "":
		return parsed.Error
	default:
		return parsed.Message
	}
}
