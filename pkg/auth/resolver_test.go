// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitelligence/mcp-server/pkg/config"
)

func newResolver(method config.AuthMethod) *Resolver {
	return NewResolver(&config.Config{AuthMethod: method})
}

func newRequest(t *testing.T, target string, headers map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestResolve_APIKeyPrecedence(t *testing.T) {
	t.Parallel()

	r := newResolver(config.AuthMethodAPIKey)

	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    string
	}{
		{
			name:   "query apiKey wins over header",
			target: "/mcp?apiKey=pk_test_A",
			headers: map[string]string{
				"x-api-key": "pk_test_B",
			},
			want: "pk_test_A",
		},
		{
			name:   "query api_key variant",
			target: "/mcp?api_key=pk_test_Q",
			want:   "pk_test_Q",
		},
		{
			name:   "x-api-key header wins over Authorization",
			target: "/mcp",
			headers: map[string]string{
				"x-api-key":     "pk_test_H",
				"Authorization": "ApiKey pk_test_Z",
			},
			want: "pk_test_H",
		},
		{
			name:    "Authorization ApiKey prefix",
			target:  "/mcp",
			headers: map[string]string{"Authorization": "ApiKey pk_test_C"},
			want:    "pk_test_C",
		},
		{
			name:    "Authorization Bearer prefix",
			target:  "/mcp",
			headers: map[string]string{"Authorization": "Bearer pk_test_D"},
			want:    "pk_test_D",
		},
		{
			name:    "Authorization raw value",
			target:  "/mcp",
			headers: map[string]string{"Authorization": "pk_test_E"},
			want:    "pk_test_E",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cred, err := r.Resolve(newRequest(t, tt.target, tt.headers))
			require.NoError(t, err)
			assert.Equal(t, SchemeAPIKey, cred.Scheme)
			assert.Equal(t, tt.want, cred.Value)
		})
	}
}

func TestResolve_APIKeyMissing(t *testing.T) {
	t.Parallel()

	r := newResolver(config.AuthMethodAPIKey)
	_, err := r.Resolve(newRequest(t, "/mcp", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Contains(t, err.Error(), "X-API-Key")
}

func TestResolve_BearerMode(t *testing.T) {
	t.Parallel()

	r := newResolver(config.AuthMethodOAuth)

	cred, err := r.Resolve(newRequest(t, "/mcp", map[string]string{"Authorization": "Bearer tok123"}))
	require.NoError(t, err)
	assert.Equal(t, SchemeBearer, cred.Scheme)
	assert.Equal(t, "tok123", cred.Value)

	// An API key is not accepted in oauth-only mode.
	_, err = r.Resolve(newRequest(t, "/mcp?apiKey=pk_test_A", nil))
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestResolve_AutoDetect(t *testing.T) {
	t.Parallel()

	r := newResolver(config.AuthMethodBoth)

	t.Run("bearer token wins", func(t *testing.T) {
		t.Parallel()
		cred, err := r.Resolve(newRequest(t, "/mcp", map[string]string{"Authorization": "Bearer tok123"}))
		require.NoError(t, err)
		assert.Equal(t, SchemeBearer, cred.Scheme)
		assert.Equal(t, "tok123", cred.Value)
	})

	t.Run("falls back to api key header", func(t *testing.T) {
		t.Parallel()
		cred, err := r.Resolve(newRequest(t, "/mcp", map[string]string{"x-api-key": "pk_test_X"}))
		require.NoError(t, err)
		assert.Equal(t, SchemeAPIKey, cred.Scheme)
		assert.Equal(t, "pk_test_X", cred.Value)
	})

	t.Run("neither credential fails naming both mechanisms", func(t *testing.T) {
		t.Parallel()
		_, err := r.Resolve(newRequest(t, "/mcp", nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoCredential)
		assert.Contains(t, err.Error(), "Bearer")
		assert.Contains(t, err.Error(), "X-API-Key")
	})
}

func TestResolve_IDTokenMode(t *testing.T) {
	t.Parallel()

	t.Run("header wins", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(&config.Config{AuthMethod: config.AuthMethodIDToken, IDToken: "configured"})
		cred, err := r.Resolve(newRequest(t, "/mcp", map[string]string{"Authorization": "Bearer from-header"}))
		require.NoError(t, err)
		assert.Equal(t, SchemeIDToken, cred.Scheme)
		assert.Equal(t, "from-header", cred.Value)
	})

	t.Run("config fallback", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(&config.Config{AuthMethod: config.AuthMethodIDToken, IDToken: "configured"})
		cred, err := r.Resolve(newRequest(t, "/mcp", nil))
		require.NoError(t, err)
		assert.Equal(t, "configured", cred.Value)
	})

	t.Run("nothing configured fails", func(t *testing.T) {
		t.Parallel()
		r := newResolver(config.AuthMethodIDToken)
		_, err := r.Resolve(newRequest(t, "/mcp", nil))
		assert.ErrorIs(t, err, ErrNoCredential)
	})
}

func TestCredentialContextRoundTrip(t *testing.T) {
	t.Parallel()

	req := newRequest(t, "/mcp", nil)
	ctx := WithCredential(req.Context(), ResolvedCredential{Scheme: SchemeAPIKey, Value: "pk_test_A"})

	cred, ok := CredentialFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "pk_test_A", cred.Value)

	_, ok = CredentialFromContext(req.Context())
	assert.False(t, ok)
}
