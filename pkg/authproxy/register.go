// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package authproxy

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/profitelligence/mcp-server/pkg/logger"
)

// maxRegistrationBody bounds the registration request body.
const maxRegistrationBody = 64 * 1024

// clientRegistrationRequest is the subset of RFC 7591 metadata the
// proxy inspects.
type clientRegistrationRequest struct {
	RedirectURIs []string `json:"redirect_uris"`
	ClientName   string   `json:"client_name"`
}

// clientRegistrationResponse echoes the pre-registered upstream client
// back to the registrant.
type clientRegistrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	ClientName              string   `json:"client_name,omitempty"`
}

// RegisterHandler implements RFC 7591 dynamic client registration in
// name only: every registrant receives the single pre-registered
// upstream client id, since the proxy cannot mint real clients at the
// provider. Desktop MCP clients require the endpoint to exist.
func (p *Proxy) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if corsPreflight(w, r, "POST, OPTIONS") {
		return
	}
	if !p.cfg.Enabled {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "OAuth not enabled"}, nil)
		return
	}

	var req clientRegistrationRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRegistrationBody))
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "Failed to read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "Invalid JSON in request body")
			return
		}
	}

	// RFC 7591: HTTPS required except for loopback addresses.
	for _, uri := range req.RedirectURIs {
		if !strings.HasPrefix(uri, "https://") &&
			!strings.HasPrefix(uri, "http://localhost") &&
			!strings.HasPrefix(uri, "http://127.0.0.1") {
			writeOAuthError(w, http.StatusBadRequest, "invalid_redirect_uri",
				"Redirect URI must use HTTPS or localhost: "+uri)
			return
		}
	}

	resp := clientRegistrationResponse{
		ClientID:                p.cfg.ClientID,
		ClientIDIssuedAt:        1704067200,
		GrantTypes:              []string{"authorization_code", "refresh_token"},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: "none",
		RedirectURIs:            req.RedirectURIs,
		ClientName:              req.ClientName,
	}

	logger.Infow("dynamic client registration",
		"client_id", truncateToken(p.cfg.ClientID),
		"client_name", req.ClientName,
	)

	writeJSON(w, http.StatusCreated, resp, map[string]string{
		"Access-Control-Allow-Origin": "*",
		"Cache-Control":               "no-store",
		"Pragma":                      "no-cache",
	})
}
