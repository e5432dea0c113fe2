// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/profitelligence/mcp-server/pkg/auth"
	"github.com/profitelligence/mcp-server/pkg/authproxy"
	"github.com/profitelligence/mcp-server/pkg/authproxy/store"
	"github.com/profitelligence/mcp-server/pkg/authproxy/upstream"
	"github.com/profitelligence/mcp-server/pkg/config"
	"github.com/profitelligence/mcp-server/pkg/logger"
	"github.com/profitelligence/mcp-server/pkg/mcp"
	"github.com/profitelligence/mcp-server/pkg/server"
)

// defaultJWKSURI points at the upstream provider's signing keys,
// advertised in authorization server metadata.
const defaultJWKSURI = "https://www.googleapis.com/oauth2/v3/certs"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Profitelligence MCP server. The server exposes the research
tools at /mcp, health checks at / and /health, and, when OAuth is
enabled, the authorization proxy endpoints and discovery metadata.`,
	RunE: serveCmdFunc,
}

func serveCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	stores, err := store.New(ctx, store.Config{
		Backend: store.Backend(cfg.Storage.Backend),
		Redis: store.RedisConfig{
			Addr:     cfg.Storage.RedisAddr,
			Username: cfg.Storage.RedisUsername,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create state stores: %w", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warnw("failed to close state stores", "error", err)
		}
	}()

	var provider *upstream.Provider
	var bridge *upstream.Bridge
	if cfg.OAuth.Enabled {
		provider, err = upstream.NewProvider(upstream.ProviderConfig{
			AuthorizationEndpoint: cfg.OAuth.AuthURL,
			TokenEndpoint:         cfg.OAuth.TokenURL,
			ClientID:              cfg.OAuth.ClientID,
			ClientSecret:          cfg.OAuth.ClientSecret,
			RedirectURI:           cfg.Issuer() + "/oauth/callback",
			Scopes:                cfg.OAuth.Scopes,
		})
		if err != nil {
			return fmt.Errorf("failed to create upstream provider: %w", err)
		}

		bridge, err = upstream.NewBridge(upstream.BridgeConfig{
			Endpoint:   cfg.OAuth.BridgeURL,
			APIKey:     cfg.OAuth.BridgeAPIKey,
			ProviderID: cfg.OAuth.BridgeProviderID,
		})
		if err != nil {
			return fmt.Errorf("failed to create identity bridge: %w", err)
		}
	}

	proxy, err := authproxy.New(authproxy.Config{
		Enabled:     cfg.OAuth.Enabled,
		Issuer:      cfg.Issuer(),
		ResourceURL: cfg.MCPServerURL,
		ClientID:    cfg.OAuth.ClientID,
		JWKSURI:     defaultJWKSURI,
		Scopes:      cfg.OAuth.Scopes,
	}, stores, provider, bridge)
	if err != nil {
		return fmt.Errorf("failed to create authorization proxy: %w", err)
	}

	logger.Infow("configuration loaded",
		"auth_method", cfg.AuthMethod,
		"oauth_enabled", cfg.OAuth.Enabled,
		"storage_backend", cfg.Storage.Backend,
		"api_base_url", cfg.APIBaseURL,
		"issuer", cfg.Issuer(),
	)

	srv := server.New(cfg, proxy, mcp.NewServer(cfg), auth.NewResolver(cfg))
	return srv.Serve(ctx)
}
