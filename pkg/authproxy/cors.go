// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package authproxy

import "net/http"

// setCORSHeaders marks a JSON endpoint readable by browser-hosted
// clients. Discovery and token endpoints are deliberately open to any
// origin; they carry no per-user secrets beyond what the caller
// already holds.
func setCORSHeaders(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// corsPreflight answers an OPTIONS request with an empty 200 after
// setting the CORS headers. Returns true when the request was a
// preflight and has been handled.
func corsPreflight(w http.ResponseWriter, r *http.Request, methods string) bool {
	if r.Method != http.MethodOptions {
		return false
	}
	setCORSHeaders(w, methods)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
	return true
}
