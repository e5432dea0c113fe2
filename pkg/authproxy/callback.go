// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package authproxy

import (
	"net/http"
	"net/url"
	"time"

	"github.com/profitelligence/mcp-server/pkg/authproxy/store"
	"github.com/profitelligence/mcp-server/pkg/logger"
)

// CallbackHandler receives the identity provider's redirect. On
// success it consumes the pending authorization, mints a proxy-issued
// temporary code, stores the grant, and sends the user agent back to
// the client's redirect URI with that code and the client's original
// state. On provider-reported errors it forwards the error to the
// client instead. Either way the AuthorizationState is consumed at
// most once; a failed login restarts from /authorize.
func (p *Proxy) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if corsPreflight(w, r, "GET, OPTIONS") {
		return
	}

	query := r.URL.Query()
	upstreamCode := query.Get("code")
	state := query.Get("state")

	if errCode := query.Get("error"); errCode != "" {
		p.forwardUpstreamError(w, r, state, errCode, query.Get("error_description"))
		return
	}

	if upstreamCode == "" || state == "" {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "Missing code or state parameter")
		return
	}

	authState, err := p.stores.AuthState.TakeOnce(r.Context(), state)
	if err != nil {
		logger.Warnw("callback with invalid or expired state", "state", truncateToken(state))
		writeOAuthError(w, http.StatusBadRequest, errInvalidGrant, "Invalid or expired state parameter")
		return
	}

	tempCode, err := generateRandomToken()
	if err != nil {
		logger.Errorw("failed to generate temporary code", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "Failed to complete authorization")
		return
	}

	grant := store.GrantRecord{
		UpstreamCode: upstreamCode,
		CodeVerifier: authState.CodeVerifier,
		// The exact callback URL from the upstream authorization
		// request; the provider rejects the exchange on any mismatch.
		UpstreamRedirectURI: p.provider.RedirectURI(),
		CreatedAt:           time.Now().UTC(),
	}
	if err := p.stores.Grants.Put(r.Context(), tempCode, grant, store.GrantTTL); err != nil {
		logger.Errorw("failed to store grant record", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "Failed to complete authorization")
		return
	}

	params := url.Values{"code": {tempCode}}
	if authState.ClientState != "" {
		params.Set("state", authState.ClientState)
	}

	logger.Infow("issued temporary code for client redirect",
		"code", truncateToken(tempCode),
		"client_redirect_uri", authState.ClientRedirectURI,
	)
	http.Redirect(w, r, authState.ClientRedirectURI+"?"+params.Encode(), http.StatusFound)
}

// forwardUpstreamError relays a provider-side login failure to the
// client. The pending authorization is consumed here too; with the
// upstream leg failed there is nothing left to redeem. When no record
// matches the state there is nowhere safe to send the user, so the
// error is returned directly.
func (p *Proxy) forwardUpstreamError(w http.ResponseWriter, r *http.Request, state, errCode, errDescription string) {
	if errDescription == "" {
		errDescription = "Unknown error"
	}
	logger.Warnw("upstream authorization error",
		"error", errCode,
		"description", errDescription,
	)

	if state != "" {
		if authState, err := p.stores.AuthState.TakeOnce(r.Context(), state); err == nil && authState.ClientRedirectURI != "" {
			params := url.Values{
				"error":             {errCode},
				"error_description": {errDescription},
				"state":             {authState.ClientState},
			}
			http.Redirect(w, r, authState.ClientRedirectURI+"?"+params.Encode(), http.StatusFound)
			return
		}
	}

	writeOAuthError(w, http.StatusBadRequest, errCode, errDescription)
}
