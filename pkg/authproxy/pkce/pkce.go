// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package pkce implements the Proof Key for Code Exchange primitives
// (RFC 7636) used on both legs of the authorization flow: the pair the
// proxy issues to downstream clients and the pair it generates for the
// upstream identity provider.
package pkce

import (
	"crypto/subtle"

	"golang.org/x/oauth2"
)

// ChallengeMethodS256 is the only challenge method the proxy accepts
// (RFC 7636 Section 4.2). The "plain" method is rejected at the
// authorization endpoint.
const ChallengeMethodS256 = "S256"

// GenerateVerifier generates a cryptographically random code_verifier
// per RFC 7636 Section 4.1. The verifier is 43 characters (32 bytes
// base64url encoded without padding).
//
// This delegates to oauth2.GenerateVerifier() from golang.org/x/oauth2,
// which panics on crypto/rand read failure.
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// ChallengeFromVerifier computes the code_challenge from a code_verifier
// using the S256 method per RFC 7636 Section 4.2:
// code_challenge = BASE64URL(SHA256(code_verifier))
func ChallengeFromVerifier(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// VerifyChallenge reports whether the verifier presented at the token
// endpoint matches the challenge captured at the authorization endpoint.
// The comparison is constant-time over the derived challenge.
func VerifyChallenge(verifier, challenge string) bool {
	derived := ChallengeFromVerifier(verifier)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(challenge)) == 1
}
