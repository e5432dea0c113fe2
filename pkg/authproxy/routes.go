// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package authproxy

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers the proxy endpoints on the router. Discovery routes
// are always mounted (they answer 404 when the feature is off); the
// flow endpoints only exist when OAuth is enabled.
func (p *Proxy) Routes(r chi.Router) {
	r.HandleFunc("/.well-known/oauth-authorization-server", p.AuthorizationServerMetadataHandler)
	r.HandleFunc("/.well-known/oauth-protected-resource", p.ProtectedResourceMetadataHandler)
	r.HandleFunc("/.well-known/oauth-protected-resource/mcp", p.ProtectedResourceMetadataHandler)
	r.HandleFunc("/register", p.RegisterHandler)

	if !p.cfg.Enabled {
		return
	}

	r.HandleFunc("/authorize", p.AuthorizeHandler)
	r.HandleFunc("/oauth/callback", p.CallbackHandler)
	r.HandleFunc("/oauth/token", p.TokenHandler)
}

// ResourceMetadataURL returns the absolute URL of the MCP-specific
// protected-resource document, used in WWW-Authenticate challenges.
func (p *Proxy) ResourceMetadataURL() string {
	return p.cfg.Issuer + "/.well-known/oauth-protected-resource/mcp"
}
