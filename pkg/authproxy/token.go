// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package authproxy

import (
	"errors"
	"net/http"

	"github.com/profitelligence/mcp-server/pkg/authproxy/upstream"
	"github.com/profitelligence/mcp-server/pkg/logger"
)

// tokenResponse is the success body returned to the client.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenHandler redeems a proxy-issued temporary code. The exchange is
// fully sequential: consume the grant, redeem the upstream code with
// the stored verifier and callback URL, then bridge the resulting
// identity token into the resource-scoped format. The grant is
// consumed before the first upstream call and never restored; any
// failure after that point means the client must restart from
// /authorize.
func (p *Proxy) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if corsPreflight(w, r, "POST, OPTIONS") {
		return
	}

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "Malformed form body")
		return
	}

	grantType := r.PostForm.Get("grant_type")
	code := r.PostForm.Get("code")

	logger.Infow("token request",
		"grant_type", grantType,
		"code", truncateToken(code),
	)

	if grantType != "authorization_code" {
		writeOAuthError(w, http.StatusBadRequest, errUnsupportedGrantType,
			"Grant type '"+grantType+"' not supported")
		return
	}
	if code == "" {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "Missing authorization code")
		return
	}

	grant, err := p.stores.Grants.TakeOnce(r.Context(), code)
	if err != nil {
		logger.Warnw("invalid or expired authorization code", "code", truncateToken(code))
		writeOAuthError(w, http.StatusBadRequest, errInvalidGrant, "Invalid or expired authorization code")
		return
	}

	tokens, err := p.provider.ExchangeCode(r.Context(), grant.UpstreamCode, grant.CodeVerifier, grant.UpstreamRedirectURI)
	if err != nil {
		logger.Errorw("upstream code exchange failed", "error", err)
		writeOAuthError(w, http.StatusBadRequest, errInvalidGrant, "Token exchange failed: "+err.Error())
		return
	}

	resourceToken, err := p.bridge.ExchangeIDToken(r.Context(), tokens.IDToken)
	if err != nil {
		if errors.Is(err, upstream.ErrBridgeNotConfigured) {
			logger.Errorw("identity bridge not configured")
			writeOAuthError(w, http.StatusInternalServerError, errServerError, "Identity bridge not configured")
			return
		}
		logger.Errorw("identity bridge exchange failed", "error", err)
		writeOAuthError(w, http.StatusBadRequest, errInvalidGrant, "Identity exchange failed: "+err.Error())
		return
	}

	logger.Infow("token exchange complete", "code", truncateToken(code))

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: resourceToken,
		TokenType:   "Bearer",
		ExpiresIn:   accessTokenExpirySeconds,
	}, map[string]string{
		"Access-Control-Allow-Origin": "*",
		"Cache-Control":               "no-store",
		"Pragma":                      "no-cache",
	})
}
