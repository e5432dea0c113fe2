// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package server assembles the HTTP surface: health checks for the
// load balancer, the OAuth proxy endpoints, and the MCP endpoint
// behind credential resolution.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/profitelligence/mcp-server/pkg/auth"
	"github.com/profitelligence/mcp-server/pkg/authproxy"
	"github.com/profitelligence/mcp-server/pkg/config"
	"github.com/profitelligence/mcp-server/pkg/logger"
	"github.com/profitelligence/mcp-server/pkg/mcp"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server is the assembled HTTP server.
type Server struct {
	cfg     *config.Config
	handler http.Handler
}

// New wires the routes. The MCP endpoint sits behind the credential
// resolver; when the OAuth layer is enabled an unauthenticated request
// gets a 401 challenge pointing at the protected-resource metadata,
// otherwise the request proceeds and a missing API key surfaces as a
// tool error.
func New(cfg *config.Config, proxy *authproxy.Proxy, mcpServer *mcp.Server, resolver *auth.Resolver) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/", rootHealthHandler)
	r.Get("/health", healthHandler)

	proxy.Routes(r)

	var authMiddleware func(http.Handler) http.Handler
	if cfg.OAuth.Enabled {
		challenge := auth.NewChallenge("mcp-server", proxy.ResourceMetadataURL())
		authMiddleware = challenge.Middleware(resolver)
	} else {
		authMiddleware = auth.ResolveMiddleware(resolver)
	}

	// No timeout middleware on /mcp; streamable HTTP sessions are
	// long-lived.
	r.Handle("/mcp", mcpEndpoint(authMiddleware(mcpServer.Handler())))

	return &Server{cfg: cfg, handler: r}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting MCP server on http://%s/mcp", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped with error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down MCP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// mcpEndpoint answers browser preflights itself and hands everything
// else to the protected MCP handler.
func mcpEndpoint(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rootHealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, `{"status": "healthy", "service": "profitelligence-mcp", "version": "1.0"}`)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, `{"status": "healthy", "service": "profitelligence-mcp"}`)
}

func writeHealth(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Errorw("failed to write health response", "error", err)
	}
}
