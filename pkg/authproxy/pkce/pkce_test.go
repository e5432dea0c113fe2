// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package pkce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateVerifier(t *testing.T) {
	t.Parallel()

	verifier := GenerateVerifier()

	// RFC 7636: code_verifier must be 43-128 characters
	assert.GreaterOrEqual(t, len(verifier), 43)
	assert.LessOrEqual(t, len(verifier), 128)

	// Two calls must not collide.
	assert.NotEqual(t, verifier, GenerateVerifier())
}

func TestChallengeFromVerifier_RFC7636Example(t *testing.T) {
	t.Parallel()

	// RFC 7636 Appendix B example
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	expected := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	assert.Equal(t, expected, ChallengeFromVerifier(verifier))
}

func TestVerifyChallenge(t *testing.T) {
	t.Parallel()

	verifier := GenerateVerifier()
	challenge := ChallengeFromVerifier(verifier)

	assert.True(t, VerifyChallenge(verifier, challenge))
	assert.False(t, VerifyChallenge(verifier, "not-the-challenge"))
	assert.False(t, VerifyChallenge("not-the-verifier", challenge))
	assert.False(t, VerifyChallenge("", challenge))
}
