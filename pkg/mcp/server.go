// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the Profitelligence research tools over the
// Model Context Protocol. The tools are thin plumbing: each forwards
// its arguments to the data API using the credential the HTTP auth
// layer resolved for the request.
package mcp

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/profitelligence/mcp-server/pkg/auth"
	"github.com/profitelligence/mcp-server/pkg/config"
)

const (
	serverName    = "profitelligence-mcp"
	serverVersion = "1.0"
)

// Server wraps the MCP protocol server and its streamable-HTTP
// transport.
type Server struct {
	streamable *server.StreamableHTTPServer
}

// NewServer builds the MCP server with all tools registered.
func NewServer(cfg *config.Config) *Server {
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	h := &toolHandler{cfg: cfg}
	h.register(mcpServer)

	streamable := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithHTTPContextFunc(propagateCredential),
	)

	return &Server{streamable: streamable}
}

// Handler returns the HTTP handler for the /mcp endpoint.
func (s *Server) Handler() http.Handler {
	return s.streamable
}

// propagateCredential carries the credential the auth middleware
// attached to the HTTP request into the tool handlers' context.
func propagateCredential(ctx context.Context, r *http.Request) context.Context {
	if cred, ok := auth.CredentialFromContext(r.Context()); ok {
		return auth.WithCredential(ctx, cred)
	}
	return ctx
}
