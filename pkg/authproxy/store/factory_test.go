// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryBackend(t *testing.T) {
	t.Parallel()

	stores, err := New(context.Background(), Config{Backend: BackendMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	assert.IsType(t, &MemoryStore[AuthorizationState]{}, stores.AuthState)
	assert.IsType(t, &MemoryStore[GrantRecord]{}, stores.Grants)
}

func TestNew_EmptyBackendDefaultsToMemory(t *testing.T) {
	t.Parallel()

	stores, err := New(context.Background(), Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	assert.IsType(t, &MemoryStore[AuthorizationState]{}, stores.AuthState)
}

func TestNew_RedisBackend(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	stores, err := New(context.Background(), Config{
		Backend: BackendRedis,
		Redis:   RedisConfig{Addr: mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	ctx := context.Background()
	require.NoError(t, stores.AuthState.Put(ctx, "k", AuthorizationState{ClientState: "s"}, time.Minute))
	require.NoError(t, stores.Grants.Put(ctx, "k", GrantRecord{UpstreamCode: "c"}, time.Minute))

	// Same key, separate namespaces.
	st, err := stores.AuthState.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "s", st.ClientState)
	gr, err := stores.Grants.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "c", gr.UpstreamCode)
}

func TestNew_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Backend: "etcd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}
