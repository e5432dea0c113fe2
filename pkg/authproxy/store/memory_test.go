// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_PutGet(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore[AuthorizationState]()
	ctx := context.Background()

	state := AuthorizationState{
		CodeVerifier:      "verifier",
		ClientRedirectURI: "https://client.example/cb",
		ClientState:       "xyz",
	}
	require.NoError(t, s.Put(ctx, "key1", state, time.Minute))

	got, err := s.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, state, got)

	// Get does not consume.
	got, err = s.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore[GrantRecord]()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TakeOnceConsumesExactlyOnce(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore[GrantRecord]()
	ctx := context.Background()

	grant := GrantRecord{UpstreamCode: "UPSTREAM1", CodeVerifier: "v"}
	require.NoError(t, s.Put(ctx, "code1", grant, time.Minute))

	got, err := s.TakeOnce(ctx, "code1")
	require.NoError(t, err)
	assert.Equal(t, grant, got)

	// Second take with the same key always misses.
	_, err = s.TakeOnce(ctx, "code1")
	assert.ErrorIs(t, err, ErrNotFound)

	// And so does a third.
	_, err = s.TakeOnce(ctx, "code1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TakeOnceMissingKey(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore[GrantRecord]()
	_, err := s.TakeOnce(context.Background(), "never-stored")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewMemoryStore[AuthorizationState](WithClock[AuthorizationState](clock.Now))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "key1", AuthorizationState{ClientState: "a"}, 15*time.Minute))

	clock.Advance(14 * time.Minute)
	_, err := s.Get(ctx, "key1")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = s.Get(ctx, "key1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.TakeOnce(ctx, "key1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_LazySweepBoundsGrowth(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewMemoryStore[GrantRecord](WithClock[GrantRecord](clock.Now))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "old1", GrantRecord{}, time.Minute))
	require.NoError(t, s.Put(ctx, "old2", GrantRecord{}, time.Minute))
	assert.Equal(t, 2, s.len())

	clock.Advance(2 * time.Minute)

	// The next mutating call sweeps the dead entries out.
	require.NoError(t, s.Put(ctx, "fresh", GrantRecord{}, time.Minute))
	assert.Equal(t, 1, s.len())
}

func TestMemoryStore_SweepExpired(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewMemoryStore[GrantRecord](WithClock[GrantRecord](clock.Now))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", GrantRecord{}, time.Minute))
	clock.Advance(2 * time.Minute)

	require.NoError(t, s.SweepExpired(ctx))
	assert.Equal(t, 0, s.len())
}

func TestMemoryStore_ConcurrentTakeOnce(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore[GrantRecord]()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "contested", GrantRecord{UpstreamCode: "c"}, time.Minute))

	const racers = 32
	var wins int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.TakeOnce(ctx, "contested"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins, "exactly one racer may consume the record")
}
