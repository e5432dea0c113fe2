// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package upstream contains the proxy's outbound clients: the OAuth2
// identity provider it relays authorization codes to, and the
// federated-identity bridge that converts the provider's identity
// token into one the resource API accepts.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/profitelligence/mcp-server/pkg/authproxy/pkce"
	"github.com/profitelligence/mcp-server/pkg/logger"
)

// maxResponseSize is the maximum allowed response size for HTTP
// requests to prevent DoS.
const maxResponseSize = 1024 * 1024 // 1MB

// defaultTimeout bounds every outbound call. A hung upstream would
// otherwise starve the calling request.
const defaultTimeout = 30 * time.Second

// ErrExchangeFailed wraps upstream rejections of a code exchange. The
// token endpoint maps it to invalid_grant.
var ErrExchangeFailed = errors.New("upstream code exchange failed")

// ProviderConfig configures the upstream identity provider client.
type ProviderConfig struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
	ClientID              string
	ClientSecret          string

	// RedirectURI is the proxy's own fixed callback URL, derived from
	// configuration, never from request headers.
	RedirectURI string

	Scopes []string
}

// Validate checks required fields.
func (c *ProviderConfig) Validate() error {
	if c.AuthorizationEndpoint == "" {
		return errors.New("authorization endpoint is required")
	}
	if c.TokenEndpoint == "" {
		return errors.New("token endpoint is required")
	}
	if c.ClientID == "" {
		return errors.New("client id is required")
	}
	if c.RedirectURI == "" {
		return errors.New("redirect URI is required")
	}
	return nil
}

// Tokens holds the fields of interest from the provider's token
// response. The proxy only ever forwards IDToken to the bridge; none
// of these values reach the downstream client.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Provider is the OAuth2 client for the upstream identity provider.
type Provider struct {
	config     ProviderConfig
	httpClient *http.Client
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// NewProvider creates the upstream provider client.
func NewProvider(config ProviderConfig, opts ...ProviderOption) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}

	p := &Provider{
		config:     config,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RedirectURI returns the fixed callback URL this provider was
// configured with. The callback handler stores exactly this value in
// the grant record so the later exchange replays it byte for byte.
func (p *Provider) RedirectURI() string {
	return p.config.RedirectURI
}

// AuthorizationURL builds the URL to send the user agent to. The
// offline access type with forced consent makes the provider return a
// refresh token on every login, not only the first consent.
func (p *Provider) AuthorizationURL(state, codeChallenge string, scopes []string) (string, error) {
	if state == "" {
		return "", errors.New("state parameter is required")
	}
	if codeChallenge == "" {
		return "", errors.New("code challenge is required")
	}

	if len(scopes) == 0 {
		scopes = p.config.Scopes
	}

	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {p.config.ClientID},
		"redirect_uri":          {p.config.RedirectURI},
		"state":                 {state},
		"scope":                 {strings.Join(scopes, " ")},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {pkce.ChallengeMethodS256},
		"access_type":           {"offline"},
		"prompt":                {"consent"},
	}

	return p.config.AuthorizationEndpoint + "?" + params.Encode(), nil
}

// ExchangeCode redeems an authorization code at the provider's token
// endpoint. redirectURI must be the stored value from the grant record;
// providers reject the exchange on any mismatch with the original
// authorization request.
func (p *Provider) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*Tokens, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	logger.Infow("exchanging authorization code with upstream provider",
		"token_endpoint", p.config.TokenEndpoint,
		"has_pkce_verifier", codeVerifier != "",
	)

	params := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {p.config.ClientID},
		"code_verifier": {codeVerifier},
	}
	if p.config.ClientSecret != "" {
		params.Set("client_secret", p.config.ClientSecret)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.config.TokenEndpoint,
		strings.NewReader(params.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnw("upstream token endpoint rejected code exchange",
			"status", resp.StatusCode,
			"error", parseOAuthError(body),
		)
		return nil, fmt.Errorf("%w: %s", ErrExchangeFailed, parseOAuthError(body))
	}

	var tokens Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	// The bridge needs the identity token; a response without one is
	// useless for this flow even if the exchange itself succeeded.
	if tokens.IDToken == "" {
		return nil, fmt.Errorf("%w: token response contains no id_token", ErrExchangeFailed)
	}

	logger.Infow("authorization code exchange successful",
		"has_refresh_token", tokens.RefreshToken != "",
	)
	return &tokens, nil
}

// oauthErrorResponse is the standard error body shape (RFC 6749 §5.2).
type oauthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// parseOAuthError extracts a printable error from an upstream response
// body, falling back to a truncated raw body.
func parseOAuthError(body []byte) string {
	var oauthErr oauthErrorResponse
	if err := json.Unmarshal(body, &oauthErr); err == nil && oauthErr.Error != "" {
		if oauthErr.ErrorDescription != "" {
			return oauthErr.Error + ": " + oauthErr.ErrorDescription
		}
		return oauthErr.Error
	}

	raw := string(body)
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return raw
}
