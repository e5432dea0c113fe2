// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package authproxy implements the OAuth 2.1 authorization proxy that
// fronts the MCP server. It relays the upstream identity provider's
// authorization-code flow: /authorize redirects the user agent to the
// provider, /oauth/callback converts the provider's code into a
// proxy-issued temporary code, and /oauth/token redeems that code
// through a two-hop exchange into a resource-scoped bearer token. The
// proxy never issues tokens of its own.
package authproxy

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/profitelligence/mcp-server/pkg/authproxy/store"
	"github.com/profitelligence/mcp-server/pkg/authproxy/upstream"
)

// accessTokenExpirySeconds is the expiry hint returned with bridged
// tokens. The real lifetime is governed by the bridge; this matches it.
const accessTokenExpirySeconds = 3600

// defaultScopes is the minimal identity scope set requested upstream
// when the client does not send its own.
var defaultScopes = []string{"openid", "email", "profile"}

// Config carries the proxy's public identity and feature switches.
type Config struct {
	// Enabled gates every endpoint; when false the discovery routes
	// return 404 and nothing else is mounted.
	Enabled bool

	// Issuer is the proxy's public base URL. The proxy presents itself
	// as the authorization server; clients never learn the upstream
	// provider's identity from metadata.
	Issuer string

	// ResourceURL is the full MCP endpoint URL, advertised as the
	// protected resource.
	ResourceURL string

	// ClientID is the pre-registered upstream client id, echoed to
	// dynamically registering clients.
	ClientID string

	// JWKSURI points at the upstream provider's signing keys.
	JWKSURI string

	// Scopes overrides defaultScopes when set.
	Scopes []string
}

// Validate checks required fields when the proxy is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Issuer == "" {
		return errors.New("issuer is required")
	}
	if c.ClientID == "" {
		return errors.New("client id is required")
	}
	return nil
}

// Proxy wires the handlers to their collaborators: the two single-use
// stores, the upstream provider client, and the identity bridge.
type Proxy struct {
	cfg      Config
	stores   *store.Stores
	provider *upstream.Provider
	bridge   *upstream.Bridge
}

// New creates the proxy.
func New(cfg Config, stores *store.Stores, provider *upstream.Provider, bridge *upstream.Bridge) (*Proxy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid authproxy config: %w", err)
	}
	if cfg.Enabled {
		if stores == nil {
			return nil, errors.New("stores are required")
		}
		if provider == nil {
			return nil, errors.New("upstream provider is required")
		}
		if bridge == nil {
			return nil, errors.New("identity bridge is required")
		}
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultScopes
	}
	return &Proxy{cfg: cfg, stores: stores, provider: provider, bridge: bridge}, nil
}

// generateRandomToken returns a fresh opaque token with 256 bits of
// entropy, base64url encoded without padding. Used for both internal
// state tokens and proxy-issued temporary codes.
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// truncateToken shortens secrets for log output. Full token and code
// values never reach the logs.
func truncateToken(s string) string {
	if len(s) > 10 {
		return s[:10] + "..."
	}
	return s
}
