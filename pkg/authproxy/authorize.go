// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package authproxy

import (
	"net/http"
	"strings"
	"time"

	"github.com/profitelligence/mcp-server/pkg/authproxy/pkce"
	"github.com/profitelligence/mcp-server/pkg/authproxy/store"
	"github.com/profitelligence/mcp-server/pkg/logger"
)

// AuthorizeHandler begins the flow. It mints a PKCE pair and an
// internal state token for the upstream leg, persists the pending
// authorization, and redirects the user agent to the identity
// provider. The client's own state value rides along in the stored
// record; it protects the client-to-proxy leg and is never sent
// upstream.
func (p *Proxy) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	if corsPreflight(w, r, "GET, OPTIONS") {
		return
	}

	query := r.URL.Query()
	clientRedirectURI := query.Get("redirect_uri")
	clientState := query.Get("state")
	clientID := query.Get("client_id")
	scope := query.Get("scope")

	if clientRedirectURI == "" {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "Missing redirect_uri parameter")
		return
	}
	if clientID == "" {
		clientID = p.cfg.ClientID
	}

	verifier := pkce.GenerateVerifier()
	challenge := pkce.ChallengeFromVerifier(verifier)

	internalState, err := generateRandomToken()
	if err != nil {
		logger.Errorw("failed to generate state token", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "Failed to start authorization")
		return
	}

	authState := store.AuthorizationState{
		CodeVerifier:      verifier,
		ClientRedirectURI: clientRedirectURI,
		ClientState:       clientState,
		ClientID:          clientID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := p.stores.AuthState.Put(r.Context(), internalState, authState, store.AuthorizationStateTTL); err != nil {
		logger.Errorw("failed to store authorization state", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "Failed to start authorization")
		return
	}

	scopes := p.cfg.Scopes
	if scope != "" {
		scopes = strings.Fields(scope)
	}
	upstreamURL, err := p.provider.AuthorizationURL(internalState, challenge, scopes)
	if err != nil {
		logger.Errorw("failed to build upstream authorization URL", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "Failed to start authorization")
		return
	}

	logger.Infow("redirecting to upstream identity provider",
		"client_redirect_uri", clientRedirectURI,
		"callback_url", p.provider.RedirectURI(),
		"state", truncateToken(internalState),
	)
	http.Redirect(w, r, upstreamURL, http.StatusFound)
}
