// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore[T any](t *testing.T) (*RedisStore[T], *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreWithClient[T](client, "test:"), mr
}

func TestRedisStore_PutGet(t *testing.T) {
	t.Parallel()

	s, _ := setupRedisStore[AuthorizationState](t)
	ctx := context.Background()

	state := AuthorizationState{
		CodeVerifier:      "verifier",
		ClientRedirectURI: "https://client.example/cb",
		ClientState:       "xyz",
		ClientID:          "client-1",
	}
	require.NoError(t, s.Put(ctx, "key1", state, time.Minute))

	got, err := s.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, state.CodeVerifier, got.CodeVerifier)
	assert.Equal(t, state.ClientRedirectURI, got.ClientRedirectURI)
	assert.Equal(t, state.ClientState, got.ClientState)
}

func TestRedisStore_KeysAreNamespaced(t *testing.T) {
	t.Parallel()

	s, mr := setupRedisStore[GrantRecord](t)
	require.NoError(t, s.Put(context.Background(), "code1", GrantRecord{}, time.Minute))

	assert.True(t, mr.Exists("test:code1"))
	assert.False(t, mr.Exists("code1"))
}

func TestRedisStore_TakeOnceConsumesExactlyOnce(t *testing.T) {
	t.Parallel()

	s, _ := setupRedisStore[GrantRecord](t)
	ctx := context.Background()

	grant := GrantRecord{
		UpstreamCode:        "UPSTREAM1",
		CodeVerifier:        "v",
		UpstreamRedirectURI: "https://proxy.example/oauth/callback",
	}
	require.NoError(t, s.Put(ctx, "code1", grant, time.Minute))

	got, err := s.TakeOnce(ctx, "code1")
	require.NoError(t, err)
	assert.Equal(t, grant.UpstreamCode, got.UpstreamCode)
	assert.Equal(t, grant.UpstreamRedirectURI, got.UpstreamRedirectURI)

	_, err = s.TakeOnce(ctx, "code1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	s, mr := setupRedisStore[AuthorizationState](t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "key1", AuthorizationState{ClientState: "a"}, 15*time.Minute))

	mr.FastForward(14 * time.Minute)
	_, err := s.Get(ctx, "key1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "key1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.TakeOnce(ctx, "key1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_GetMissing(t *testing.T) {
	t.Parallel()

	s, _ := setupRedisStore[GrantRecord](t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisStore_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := NewRedisStore[GrantRecord](ctx, RedisConfig{KeyPrefix: "p:"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")

	_, err = NewRedisStore[GrantRecord](ctx, RedisConfig{Addr: "localhost:6379"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prefix")
}
