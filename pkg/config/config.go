// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates the server configuration from
// PROF_-prefixed environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/profitelligence/mcp-server/pkg/logger"
)

// AuthMethod selects how inbound requests are authenticated.
type AuthMethod string

// Supported authentication methods. AuthMethodBoth auto-detects between
// API keys and OAuth bearer tokens per request.
const (
	AuthMethodAPIKey  AuthMethod = "api_key"
	AuthMethodOAuth   AuthMethod = "oauth"
	AuthMethodBoth    AuthMethod = "both"
	AuthMethodIDToken AuthMethod = "id_token"
)

// OAuthConfig holds the authorization proxy settings: the upstream
// identity provider endpoints, the pre-registered upstream client, and
// the identity bridge that converts the provider's token into one the
// resource API accepts.
type OAuthConfig struct {
	// Enabled is forced on when AuthMethod is oauth or both.
	Enabled bool `mapstructure:"oauth_enabled"`

	ClientID     string `mapstructure:"oauth_client_id"`
	ClientSecret string `mapstructure:"oauth_client_secret"`

	// ClientConfigPath optionally points at a JSON file carrying
	// client_id/client_secret, either flat or under a "web" object.
	ClientConfigPath string `mapstructure:"oauth_client_config_path"`

	// AuthURL and TokenURL are the upstream provider's endpoints.
	AuthURL  string `mapstructure:"oauth_auth_url"`
	TokenURL string `mapstructure:"oauth_token_url"`

	// Scopes is the default scope set requested upstream when the
	// client does not send its own.
	Scopes []string `mapstructure:"oauth_scopes"`

	// BridgeURL is the federated-identity endpoint that exchanges the
	// provider's identity token for a resource-scoped one.
	BridgeURL string `mapstructure:"identity_bridge_url"`

	// BridgeAPIKey authenticates the proxy to the bridge endpoint.
	BridgeAPIKey string `mapstructure:"identity_bridge_api_key"`

	// BridgeProviderID names the upstream provider in bridge requests.
	BridgeProviderID string `mapstructure:"identity_bridge_provider_id"`
}

// StorageConfig selects the ephemeral state store backend.
type StorageConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend string `mapstructure:"storage_backend"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisUsername string `mapstructure:"redis_username"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// Config is the full server configuration. All values are resolved at
// load time; no component re-reads the environment.
type Config struct {
	AuthMethod AuthMethod `mapstructure:"auth_method"`

	// APIKey is the server-wide fallback key. Optional: multitenant
	// deployments expect keys per request instead.
	APIKey string `mapstructure:"api_key"`

	OAuth   OAuthConfig   `mapstructure:",squash"`
	Storage StorageConfig `mapstructure:",squash"`

	// IDToken and RefreshToken support the legacy single-user identity
	// token mode.
	IDToken      string `mapstructure:"id_token"`
	RefreshToken string `mapstructure:"refresh_token"`

	// APIBaseURL is the downstream resource API.
	APIBaseURL string `mapstructure:"api_base_url"`

	// MCPServerURL is this server's public URL including the /mcp
	// path; discovery metadata derives the issuer from it.
	MCPServerURL string `mapstructure:"mcp_server_url"`

	Host string `mapstructure:"mcp_host"`
	Port int    `mapstructure:"mcp_port"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from PROF_-prefixed environment variables,
// applies defaults, resolves file-based credentials and validates the
// result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PROF")
	v.AutomaticEnv()

	v.SetDefault("auth_method", string(AuthMethodAPIKey))
	v.SetDefault("oauth_auth_url", "https://accounts.google.com/o/oauth2/v2/auth")
	v.SetDefault("oauth_token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("oauth_scopes", []string{"openid", "email", "profile"})
	v.SetDefault("identity_bridge_url", "https://identitytoolkit.googleapis.com/v1/accounts:signInWithIdp")
	v.SetDefault("identity_bridge_provider_id", "google.com")
	v.SetDefault("storage_backend", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("api_base_url", "https://apollo.profitelligence.com")
	v.SetDefault("mcp_server_url", "https://mcp-dev.profitelligence.com/mcp")
	v.SetDefault("mcp_host", "0.0.0.0")
	v.SetDefault("mcp_port", 3000)
	v.SetDefault("log_level", "info")

	// Bind every key we read so AutomaticEnv sees unset defaults too.
	for _, key := range []string{
		"auth_method", "api_key",
		"oauth_enabled", "oauth_client_id", "oauth_client_secret",
		"oauth_client_config_path", "oauth_auth_url", "oauth_token_url",
		"oauth_scopes",
		"identity_bridge_url", "identity_bridge_api_key", "identity_bridge_provider_id",
		"storage_backend", "redis_addr", "redis_username", "redis_password", "redis_db",
		"id_token", "refresh_token",
		"api_base_url", "mcp_server_url", "mcp_host", "mcp_port", "log_level",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if cfg.AuthMethod == AuthMethodOAuth || cfg.AuthMethod == AuthMethodBoth {
		cfg.OAuth.Enabled = true
	}

	if err := cfg.loadOAuthClientFile(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return &cfg, nil
}

// loadOAuthClientFile fills in client credentials from the JSON file at
// ClientConfigPath when they were not set through the environment. Both
// the provider's {"web": {...}} export format and a flat object are
// accepted.
func (c *Config) loadOAuthClientFile() error {
	if c.OAuth.ClientConfigPath == "" {
		return nil
	}
	if c.OAuth.ClientID != "" && c.OAuth.ClientSecret != "" {
		logger.Debugw("oauth credentials already provided, skipping file load",
			"path", c.OAuth.ClientConfigPath)
		return nil
	}

	data, err := os.ReadFile(c.OAuth.ClientConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warnw("oauth client config file not found", "path", c.OAuth.ClientConfigPath)
			return nil
		}
		return fmt.Errorf("failed to read oauth client config %s: %w", c.OAuth.ClientConfigPath, err)
	}

	var wrapper struct {
		Web *struct {
			ClientID     string `json:"client_id"`
			ClientSecret string `json:"client_secret"`
		} `json:"web"`
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("failed to parse oauth client config %s: %w", c.OAuth.ClientConfigPath, err)
	}

	id, secret := wrapper.ClientID, wrapper.ClientSecret
	if wrapper.Web != nil {
		id, secret = wrapper.Web.ClientID, wrapper.Web.ClientSecret
	}
	if c.OAuth.ClientID == "" && id != "" {
		c.OAuth.ClientID = id
		logger.Infow("loaded oauth client id from file", "path", c.OAuth.ClientConfigPath)
	}
	if c.OAuth.ClientSecret == "" && secret != "" {
		c.OAuth.ClientSecret = secret
		logger.Infow("loaded oauth client secret from file", "path", c.OAuth.ClientConfigPath)
	}
	return nil
}

// Validate checks that the Config is internally consistent.
func (c *Config) Validate() error {
	switch c.AuthMethod {
	case AuthMethodAPIKey, AuthMethodOAuth, AuthMethodBoth, AuthMethodIDToken:
	default:
		return fmt.Errorf("auth_method must be one of api_key, oauth, both, id_token; got %q", c.AuthMethod)
	}

	if c.APIKey != "" && !strings.HasPrefix(c.APIKey, "pk_live_") && !strings.HasPrefix(c.APIKey, "pk_test_") {
		return fmt.Errorf("api key must start with pk_live_ or pk_test_")
	}

	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api base URL must start with http:// or https://")
	}
	if !strings.HasPrefix(c.MCPServerURL, "http://") && !strings.HasPrefix(c.MCPServerURL, "https://") {
		return fmt.Errorf("mcp server URL must start with http:// or https://")
	}

	if c.AuthMethod == AuthMethodIDToken && c.IDToken == "" && c.RefreshToken == "" {
		return fmt.Errorf("either id_token or refresh_token is required when auth_method is id_token")
	}

	if c.OAuth.Enabled {
		if c.OAuth.ClientID == "" {
			return fmt.Errorf("oauth client id is required when oauth is enabled")
		}
		if c.OAuth.AuthURL == "" || c.OAuth.TokenURL == "" {
			return fmt.Errorf("oauth auth and token URLs are required when oauth is enabled")
		}
	}

	switch c.Storage.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("storage_backend must be memory or redis; got %q", c.Storage.Backend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("mcp_port must be between 1 and 65535; got %d", c.Port)
	}

	return nil
}

// Issuer returns the proxy's public base URL: the MCP server URL with
// a trailing /mcp path stripped. Discovery documents, the OAuth
// endpoints and protected-resource metadata all hang off this origin.
func (c *Config) Issuer() string {
	issuer := strings.TrimRight(c.MCPServerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/mcp")
	return issuer
}

// ListenAddr is the host:port the HTTP server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
