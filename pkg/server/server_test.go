// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitelligence/mcp-server/pkg/auth"
	"github.com/profitelligence/mcp-server/pkg/authproxy"
	"github.com/profitelligence/mcp-server/pkg/authproxy/store"
	"github.com/profitelligence/mcp-server/pkg/authproxy/upstream"
	"github.com/profitelligence/mcp-server/pkg/config"
	"github.com/profitelligence/mcp-server/pkg/mcp"
)

func newTestServer(t *testing.T, oauthEnabled bool) *Server {
	t.Helper()

	cfg := &config.Config{
		AuthMethod:   config.AuthMethodAPIKey,
		APIBaseURL:   "https://apollo.example.com",
		MCPServerURL: "https://mcp.example.com/mcp",
	}
	if oauthEnabled {
		cfg.AuthMethod = config.AuthMethodOAuth
		cfg.OAuth.Enabled = true
	}

	stores, err := store.New(context.Background(), store.Config{Backend: store.BackendMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	provider, err := upstream.NewProvider(upstream.ProviderConfig{
		AuthorizationEndpoint: "https://idp.example.com/auth",
		TokenEndpoint:         "https://idp.example.com/token",
		ClientID:              "client",
		RedirectURI:           "https://mcp.example.com/oauth/callback",
	})
	require.NoError(t, err)

	bridge, err := upstream.NewBridge(upstream.BridgeConfig{
		Endpoint: "https://bridge.example.com/exchange",
		APIKey:   "key",
	})
	require.NoError(t, err)

	proxy, err := authproxy.New(authproxy.Config{
		Enabled:     oauthEnabled,
		Issuer:      "https://mcp.example.com",
		ResourceURL: "https://mcp.example.com/mcp",
		ClientID:    "client",
	}, stores, provider, bridge)
	require.NoError(t, err)

	return New(cfg, proxy, mcp.NewServer(cfg), auth.NewResolver(cfg))
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy", "service": "profitelligence-mcp", "version": "1.0"}`, rec.Body.String())

	rec = get(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy", "service": "profitelligence-mcp"}`, rec.Body.String())
}

func TestMCPEndpoint_RequiresBearerWhenOAuthEnabled(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	header := rec.Header().Get("WWW-Authenticate")
	assert.Contains(t, header, `realm="mcp-server"`)
	assert.Contains(t, header, `resource_metadata="https://mcp.example.com/.well-known/oauth-protected-resource/mcp"`)
	assert.JSONEq(t, `{"error": "unauthorized", "message": "Bearer token required"}`, rec.Body.String())
}

func TestMCPEndpoint_NoChallengeWhenOAuthDisabled(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	// Without a credential the request still reaches the MCP handler;
	// it fails on the protocol level, not with an auth challenge.
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestMCPEndpoint_Preflight(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/mcp", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestOAuthRoutesMounted(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, true)

	rec := get(t, srv, "/.well-known/oauth-authorization-server")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"issuer"`)

	rec = get(t, srv, "/authorize")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOAuthRoutesDisabled(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)

	rec := get(t, srv, "/.well-known/oauth-authorization-server")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Flow endpoints are not mounted at all when the proxy is off.
	rec = get(t, srv, "/authorize")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
