// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
)

// Backend selects the storage implementation.
type Backend string

// Supported backends.
const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Key prefixes for the two logical stores when sharing one Redis.
const (
	authStateKeyPrefix = "prof:authstate:"
	grantKeyPrefix     = "prof:grant:"
)

// Config selects and configures the storage backend.
type Config struct {
	Backend Backend
	Redis   RedisConfig
}

// Stores bundles the two logical stores the proxy needs. Both share a
// backend but are namespaced separately so a state token can never
// collide with a grant code.
type Stores struct {
	AuthState Store[AuthorizationState]
	Grants    Store[GrantRecord]
}

// New creates the store pair for the configured backend.
func New(ctx context.Context, cfg Config) (*Stores, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return &Stores{
			AuthState: NewMemoryStore[AuthorizationState](),
			Grants:    NewMemoryStore[GrantRecord](),
		}, nil
	case BackendRedis:
		authCfg := cfg.Redis
		authCfg.KeyPrefix = authStateKeyPrefix
		authState, err := NewRedisStore[AuthorizationState](ctx, authCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create authorization state store: %w", err)
		}

		grantCfg := cfg.Redis
		grantCfg.KeyPrefix = grantKeyPrefix
		grants, err := NewRedisStore[GrantRecord](ctx, grantCfg)
		if err != nil {
			_ = authState.Close()
			return nil, fmt.Errorf("failed to create grant store: %w", err)
		}

		return &Stores{AuthState: authState, Grants: grants}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Close releases both stores.
func (s *Stores) Close() error {
	errAuth := s.AuthState.Close()
	errGrants := s.Grants.Close()
	if errAuth != nil {
		return errAuth
	}
	return errGrants
}
