// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package auth

import "context"

// credentialContextKey is the key used to store the resolved credential
// in the request context.
type credentialContextKey struct{}

// WithCredential returns a context carrying the resolved credential.
func WithCredential(ctx context.Context, cred ResolvedCredential) context.Context {
	return context.WithValue(ctx, credentialContextKey{}, cred)
}

// CredentialFromContext returns the credential stored by WithCredential.
func CredentialFromContext(ctx context.Context) (ResolvedCredential, bool) {
	cred, ok := ctx.Value(credentialContextKey{}).(ResolvedCredential)
	return cred, ok
}
