// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/profitelligence/mcp-server/pkg/logger"
)

// ErrBridgeNotConfigured means the bridge API key is missing. This is
// proxy misconfiguration, not a client fault; the token endpoint maps
// it to server_error.
var ErrBridgeNotConfigured = errors.New("identity bridge api key not configured")

// ErrBridgeRejected wraps bridge-side failures attributable to the
// presented identity token; it maps to invalid_grant.
var ErrBridgeRejected = errors.New("identity bridge rejected token")

// BridgeConfig configures the federated-identity bridge client.
type BridgeConfig struct {
	// Endpoint is the signInWithIdp-style URL.
	Endpoint string

	// APIKey authenticates the proxy to the bridge; sent as the key
	// query parameter.
	APIKey string

	// ProviderID names the upstream provider inside the post body,
	// e.g. "google.com".
	ProviderID string
}

// Bridge exchanges an upstream identity token for a resource-scoped
// identity token. This is the second hop of the token exchange: the
// resource API accepts a different token audience than the provider
// issues, and this call is exactly that conversion.
type Bridge struct {
	config     BridgeConfig
	httpClient *http.Client
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeHTTPClient sets a custom HTTP client, mainly for tests.
func WithBridgeHTTPClient(client *http.Client) BridgeOption {
	return func(b *Bridge) {
		b.httpClient = client
	}
}

// NewBridge creates the bridge client. A missing API key is tolerated
// here and reported on first use, so deployments without OAuth never
// need the key at all.
func NewBridge(config BridgeConfig, opts ...BridgeOption) (*Bridge, error) {
	if config.Endpoint == "" {
		return nil, errors.New("bridge endpoint is required")
	}
	if config.ProviderID == "" {
		config.ProviderID = "google.com"
	}

	b := &Bridge{
		config:     config,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// bridgeRequest is the signInWithIdp request body.
type bridgeRequest struct {
	PostBody          string `json:"postBody"`
	RequestURI        string `json:"requestUri"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// bridgeResponse carries the fields the proxy consumes.
type bridgeResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// ExchangeIDToken converts the provider's identity token into a
// resource-scoped one. The upstream token never leaves this call other
// than inside the bridge request body.
func (b *Bridge) ExchangeIDToken(ctx context.Context, idToken string) (string, error) {
	if b.config.APIKey == "" {
		return "", ErrBridgeNotConfigured
	}
	if idToken == "" {
		return "", fmt.Errorf("%w: empty identity token", ErrBridgeRejected)
	}

	payload := bridgeRequest{
		PostBody:          "id_token=" + idToken + "&providerId=" + b.config.ProviderID,
		RequestURI:        "http://localhost",
		ReturnSecureToken: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal bridge request: %w", err)
	}

	endpoint := b.config.Endpoint + "?key=" + url.QueryEscape(b.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bridge request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read bridge response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnw("identity bridge rejected exchange",
			"status", resp.StatusCode,
			"elapsed", time.Since(start),
		)
		return "", fmt.Errorf("%w: status %d: %s", ErrBridgeRejected, resp.StatusCode, bridgeErrorMessage(respBody))
	}

	var parsed bridgeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse bridge response: %w", err)
	}
	if parsed.IDToken == "" {
		return "", fmt.Errorf("%w: response contains no idToken", ErrBridgeRejected)
	}

	logger.Infow("identity bridge exchange successful", "elapsed", time.Since(start))
	return parsed.IDToken, nil
}

// bridgeErrorMessage pulls the message out of the bridge's error
// envelope, falling back to a truncated raw body.
func bridgeErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}

	raw := string(body)
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return raw
}
