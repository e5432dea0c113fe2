// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package auth resolves the credential carried by an inbound request.
// The server supports several schemes at once: Profitelligence API keys
// (pk_live_/pk_test_), OAuth bearer tokens minted by the authorization
// proxy, and legacy identity tokens configured server-side.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/profitelligence/mcp-server/pkg/config"
	"github.com/profitelligence/mcp-server/pkg/logger"
)

// Scheme tags which credential kind a request presented.
type Scheme string

// Credential schemes.
const (
	SchemeAPIKey  Scheme = "api_key"
	SchemeBearer  Scheme = "oauth"
	SchemeIDToken Scheme = "id_token"
)

// ErrNoCredential is wrapped by all "nothing usable in the request"
// failures so callers can branch with errors.Is.
var ErrNoCredential = errors.New("no credential provided")

// ResolvedCredential is the outcome of resolution: the raw credential
// plus the scheme that produced it. It lives only as long as the
// request that carried it.
type ResolvedCredential struct {
	Scheme Scheme
	Value  string
}

// Resolver extracts credentials according to the configured
// authentication method.
type Resolver struct {
	method AuthMode

	// idTokenFallback serves the legacy single-user mode where the
	// identity token comes from configuration instead of the request.
	idTokenFallback string
}

// AuthMode aliases the config type so callers outside config can name it.
type AuthMode = config.AuthMethod

// NewResolver builds a Resolver for the configured method.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		method:          cfg.AuthMethod,
		idTokenFallback: cfg.IDToken,
	}
}

// Resolve inspects the request and returns the credential matching the
// configured method. Failure is terminal for the request; the error
// names every mechanism the caller could have used.
func (res *Resolver) Resolve(r *http.Request) (ResolvedCredential, error) {
	switch res.method {
	case config.AuthMethodBoth:
		return res.resolveAuto(r)
	case config.AuthMethodOAuth:
		return res.resolveBearer(r)
	case config.AuthMethodIDToken:
		return res.resolveIDToken(r)
	default:
		return res.resolveAPIKey(r)
	}
}

// resolveAuto picks the scheme from what the request carries: a Bearer
// Authorization header wins, otherwise API key extraction runs.
func (res *Resolver) resolveAuto(r *http.Request) (ResolvedCredential, error) {
	if token, ok := bearerToken(r); ok {
		logger.Debugw("auto-detected oauth bearer token")
		return ResolvedCredential{Scheme: SchemeBearer, Value: token}, nil
	}

	if key, ok := apiKeyFromRequest(r); ok {
		logger.Debugw("auto-detected api key authentication")
		return ResolvedCredential{Scheme: SchemeAPIKey, Value: key}, nil
	}

	return ResolvedCredential{}, fmt.Errorf(
		"%w: provide either Authorization: Bearer <token> for OAuth, "+
			"or an X-API-Key header / apiKey query parameter for API key auth", ErrNoCredential)
}

func (res *Resolver) resolveBearer(r *http.Request) (ResolvedCredential, error) {
	if token, ok := bearerToken(r); ok {
		return ResolvedCredential{Scheme: SchemeBearer, Value: token}, nil
	}
	return ResolvedCredential{}, fmt.Errorf(
		"%w: oauth mode requires an Authorization: Bearer <token> header", ErrNoCredential)
}

func (res *Resolver) resolveAPIKey(r *http.Request) (ResolvedCredential, error) {
	if key, ok := apiKeyFromRequest(r); ok {
		return ResolvedCredential{Scheme: SchemeAPIKey, Value: key}, nil
	}
	return ResolvedCredential{}, fmt.Errorf(
		"%w: set an X-API-Key header or apiKey query parameter", ErrNoCredential)
}

func (res *Resolver) resolveIDToken(r *http.Request) (ResolvedCredential, error) {
	if token, ok := bearerToken(r); ok {
		return ResolvedCredential{Scheme: SchemeIDToken, Value: token}, nil
	}
	if res.idTokenFallback != "" {
		return ResolvedCredential{Scheme: SchemeIDToken, Value: res.idTokenFallback}, nil
	}
	return ResolvedCredential{}, fmt.Errorf(
		"%w: set PROF_ID_TOKEN or provide an Authorization: Bearer <token> header", ErrNoCredential)
}

// bearerToken returns the Authorization header value after the Bearer
// prefix, if present.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return header[len("Bearer "):], true
	}
	return "", false
}

// apiKeyFromRequest extracts an API key using a fixed precedence:
// query parameter (apiKey or api_key), then the x-api-key header, then
// the Authorization header with an ApiKey or Bearer prefix stripped,
// or the raw header value when no recognized prefix is present.
func apiKeyFromRequest(r *http.Request) (string, bool) {
	query := r.URL.Query()
	if key := query.Get("apiKey"); key != "" {
		logger.Debugw("api key found in query parameters")
		return key, true
	}
	if key := query.Get("api_key"); key != "" {
		logger.Debugw("api key found in query parameters")
		return key, true
	}

	if key := r.Header.Get("x-api-key"); key != "" {
		logger.Debugw("api key found in x-api-key header")
		return key, true
	}

	if header := r.Header.Get("Authorization"); header != "" {
		switch {
		case strings.HasPrefix(header, "ApiKey "):
			return header[len("ApiKey "):], true
		case strings.HasPrefix(header, "Bearer "):
			return header[len("Bearer "):], true
		default:
			return header, true
		}
	}

	return "", false
}
