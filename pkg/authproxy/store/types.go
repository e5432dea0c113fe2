// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package store provides the TTL-bound, single-use key/value stores that
// hold the authorization proxy's protocol state: pending authorizations
// keyed by the proxy's internal state token, and grant records keyed by
// the proxy-issued temporary code. Records are write-once read-once;
// TakeOnce is the only accessor protocol handlers should use.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent, expired, or was already
// consumed. Callers cannot distinguish these cases; a miss is always a
// terminal error for the flow that produced the key.
var ErrNotFound = errors.New("record not found")

// TTLs for the two record kinds. Authorization state must outlast an
// interactive login at the identity provider; grant codes only need to
// survive the client's immediate redirect back to the token endpoint.
const (
	AuthorizationStateTTL = 15 * time.Minute
	GrantTTL              = 10 * time.Minute
)

// AuthorizationState is created at the authorization endpoint and
// consumed exactly once by the callback handler. It is keyed by the
// proxy's internal state token, which never appears in any value sent
// to the downstream client.
type AuthorizationState struct {
	// CodeVerifier is the PKCE verifier for the upstream leg; its
	// challenge was sent in the upstream authorization request.
	CodeVerifier string `json:"code_verifier"`

	// ClientRedirectURI is where the downstream client asked to be
	// sent after login.
	ClientRedirectURI string `json:"client_redirect_uri"`

	// ClientState is the downstream client's own state value, echoed
	// back verbatim on the callback redirect.
	ClientState string `json:"client_state"`

	// ClientID identifies the downstream client, when it sent one.
	ClientID string `json:"client_id"`

	CreatedAt time.Time `json:"created_at"`
}

// GrantRecord is created by the callback handler and consumed exactly
// once by the token endpoint. It is keyed by the proxy-issued temporary
// code handed to the downstream client.
type GrantRecord struct {
	// UpstreamCode is the authorization code received from the
	// identity provider, not yet redeemed.
	UpstreamCode string `json:"upstream_code"`

	// CodeVerifier is the PKCE verifier carried over from the
	// AuthorizationState that produced this grant.
	CodeVerifier string `json:"code_verifier"`

	// UpstreamRedirectURI is the exact callback URL sent in the
	// upstream authorization request. The identity provider rejects
	// the code exchange on any byte-level mismatch, so this value is
	// stored and replayed rather than reconstructed.
	UpstreamRedirectURI string `json:"upstream_redirect_uri"`

	CreatedAt time.Time `json:"created_at"`
}

// Store is a TTL-bound keyed record store. Implementations must make
// TakeOnce atomic: concurrent calls for the same key yield the record
// to at most one caller.
type Store[T any] interface {
	// Put stores the record under key for at most ttl.
	Put(ctx context.Context, key string, value T, ttl time.Duration) error

	// Get returns the record without consuming it, or ErrNotFound.
	Get(ctx context.Context, key string) (T, error)

	// TakeOnce atomically fetches and deletes the record, or returns
	// ErrNotFound. A second call for the same key always misses,
	// regardless of how the first caller's flow ended.
	TakeOnce(ctx context.Context, key string) (T, error)

	// SweepExpired removes expired entries. Backends with native TTL
	// support may make this a no-op.
	SweepExpired(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
