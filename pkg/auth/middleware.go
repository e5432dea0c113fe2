// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// escapeQuotes escapes backslashes and double quotes for use inside a
// quoted-string header parameter.
func escapeQuotes(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Challenge builds RFC 6750 / RFC 9728 WWW-Authenticate values for the
// protected MCP endpoint, pointing unauthenticated clients at the
// proxy's protected-resource metadata so they can discover the
// authorization flow.
type Challenge struct {
	issuer      string
	resourceURL string
}

// NewChallenge creates a Challenge. resourceURL is the absolute URL of
// the /.well-known/oauth-protected-resource document; empty disables
// the resource_metadata hint.
func NewChallenge(issuer, resourceURL string) *Challenge {
	return &Challenge{issuer: issuer, resourceURL: resourceURL}
}

// buildWWWAuthenticate builds the header value. It always includes
// realm and, if set, resource_metadata; when includeError is true it
// appends error="invalid_token" and an optional description.
func (c *Challenge) buildWWWAuthenticate(includeError bool, errDescription string) string {
	var parts []string

	if c.issuer != "" {
		parts = append(parts, fmt.Sprintf(`realm="%s"`, escapeQuotes(c.issuer)))
	}
	if c.resourceURL != "" {
		parts = append(parts, fmt.Sprintf(`resource_metadata="%s"`, escapeQuotes(c.resourceURL)))
	}
	if includeError {
		parts = append(parts, `error="invalid_token"`)
		if errDescription != "" {
			parts = append(parts, fmt.Sprintf(`error_description="%s"`, escapeQuotes(errDescription)))
		}
	}
	return "Bearer " + strings.Join(parts, ", ")
}

// Middleware resolves the request credential before the MCP handler
// runs. Requests with a usable credential proceed with it attached to
// the context; requests without one get a 401 and a WWW-Authenticate
// challenge describing where to authorize.
func (c *Challenge) Middleware(resolver *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, err := resolver.Resolve(r)
			if err != nil {
				if errors.Is(err, ErrNoCredential) {
					c.writeUnauthorized(w, c.buildWWWAuthenticate(false, ""))
					return
				}
				c.writeUnauthorized(w, c.buildWWWAuthenticate(true, err.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), cred)))
		})
	}
}

// writeUnauthorized emits the 401 response MCP clients key their OAuth
// discovery off of.
func (*Challenge) writeUnauthorized(w http.ResponseWriter, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error": "unauthorized", "message": "Bearer token required"}`))
}

// ResolveMiddleware attaches the request credential to the context when
// one is present and lets the request through either way. Used when the
// OAuth layer is disabled: a missing API key surfaces as a tool-level
// error rather than an HTTP 401.
func ResolveMiddleware(resolver *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cred, err := resolver.Resolve(r); err == nil {
				r = r.WithContext(WithCredential(r.Context(), cred))
			}
			next.ServeHTTP(w, r)
		})
	}
}
