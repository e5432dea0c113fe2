// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package authproxy

import (
	"net/http"

	"github.com/profitelligence/mcp-server/pkg/logger"
)

// authorizationServerMetadata is the RFC 8414 document. The proxy
// advertises itself as the authorization server; the upstream provider
// only shows through in the jwks_uri.
type authorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty"`
	JWKSURI                           string   `json:"jwks_uri,omitempty"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ResponseModesSupported            []string `json:"response_modes_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
}

// protectedResourceMetadata is the RFC 9728 document. The embedded
// authorization server metadata (rather than a bare issuer URL) is
// what current MCP clients expect.
type protectedResourceMetadata struct {
	Resource               string                        `json:"resource"`
	AuthorizationServers   []authorizationServerMetadata `json:"authorization_servers"`
	ScopesSupported        []string                      `json:"scopes_supported"`
	BearerMethodsSupported []string                      `json:"bearer_methods_supported"`
	ResourceDocumentation  string                        `json:"resource_documentation,omitempty"`
	ClientID               string                        `json:"client_id,omitempty"`
}

func (p *Proxy) buildServerMetadata() authorizationServerMetadata {
	return authorizationServerMetadata{
		Issuer:                            p.cfg.Issuer,
		AuthorizationEndpoint:             p.cfg.Issuer + "/authorize",
		TokenEndpoint:                     p.cfg.Issuer + "/oauth/token",
		RegistrationEndpoint:              p.cfg.Issuer + "/register",
		JWKSURI:                           p.cfg.JWKSURI,
		GrantTypesSupported:               []string{"authorization_code", "refresh_token"},
		ResponseTypesSupported:            []string{"code"},
		CodeChallengeMethodsSupported:     []string{"S256"},
		TokenEndpointAuthMethodsSupported: []string{"none"},
		ScopesSupported:                   p.cfg.Scopes,
		ResponseModesSupported:            []string{"query"},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{"RS256"},
	}
}

// AuthorizationServerMetadataHandler serves the RFC 8414 document at
// /.well-known/oauth-authorization-server.
func (p *Proxy) AuthorizationServerMetadataHandler(w http.ResponseWriter, r *http.Request) {
	if corsPreflight(w, r, "GET, OPTIONS") {
		return
	}
	if !p.cfg.Enabled {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "OAuth not enabled"}, nil)
		return
	}

	setCORSHeaders(w, "GET, OPTIONS")
	logger.Infow("authorization server metadata requested")
	writeJSON(w, http.StatusOK, p.buildServerMetadata(), nil)
}

// ProtectedResourceMetadataHandler serves the RFC 9728 document. It is
// mounted at both /.well-known/oauth-protected-resource and the
// MCP-specific /.well-known/oauth-protected-resource/mcp path; clients
// probe the latter first.
func (p *Proxy) ProtectedResourceMetadataHandler(w http.ResponseWriter, r *http.Request) {
	if corsPreflight(w, r, "GET, OPTIONS") {
		return
	}
	if !p.cfg.Enabled {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "OAuth not enabled"}, nil)
		return
	}

	metadata := protectedResourceMetadata{
		Resource:               p.cfg.ResourceURL,
		AuthorizationServers:   []authorizationServerMetadata{p.buildServerMetadata()},
		ScopesSupported:        p.cfg.Scopes,
		BearerMethodsSupported: []string{"header"},
		ResourceDocumentation:  "https://profitelligence.com/docs/api/authentication",
		ClientID:               p.cfg.ClientID,
	}

	setCORSHeaders(w, "GET, OPTIONS")
	logger.Infow("protected resource metadata requested", "path", r.URL.Path)
	writeJSON(w, http.StatusOK, metadata, nil)
}
