// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"sync"
	"time"
)

// timedEntry wraps a value with its expiry time for TTL tracking.
type timedEntry[T any] struct {
	value     T
	createdAt time.Time
	expiresAt time.Time
}

// MemoryStore implements Store with a mutex-guarded map. It is
// thread-safe and suitable for single-instance deployments; expired
// entries are swept lazily on every mutating call so memory stays
// bounded without a background goroutine.
type MemoryStore[T any] struct {
	mu      sync.Mutex
	entries map[string]*timedEntry[T]
	now     func() time.Time
}

// MemoryStoreOption configures a MemoryStore instance.
type MemoryStoreOption[T any] func(*MemoryStore[T])

// WithClock overrides the time source. Tests use this to advance time
// past the TTL without sleeping.
func WithClock[T any](now func() time.Time) MemoryStoreOption[T] {
	return func(s *MemoryStore[T]) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore[T any](opts ...MemoryStoreOption[T]) *MemoryStore[T] {
	s := &MemoryStore[T]{
		entries: make(map[string]*timedEntry[T]),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores the record under key for at most ttl.
func (s *MemoryStore[T]) Put(_ context.Context, key string, value T, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	s.entries[key] = &timedEntry[T]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Get returns the record without consuming it, or ErrNotFound.
func (s *MemoryStore[T]) Get(_ context.Context, key string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	entry, ok := s.entries[key]
	if !ok || s.now().After(entry.expiresAt) {
		return zero, ErrNotFound
	}
	return entry.value, nil
}

// TakeOnce atomically fetches and deletes the record. The map delete
// happens under the same lock as the lookup, so concurrent callers
// racing for one key see exactly one success.
func (s *MemoryStore[T]) TakeOnce(_ context.Context, key string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	var zero T
	entry, ok := s.entries[key]
	if !ok {
		return zero, ErrNotFound
	}
	delete(s.entries, key)
	if now.After(entry.expiresAt) {
		return zero, ErrNotFound
	}
	return entry.value, nil
}

// SweepExpired removes all expired entries.
func (s *MemoryStore[T]) SweepExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return nil
}

// Close is a no-op for the in-memory store.
func (*MemoryStore[T]) Close() error {
	return nil
}

// sweepLocked removes expired entries. Callers must hold s.mu.
func (s *MemoryStore[T]) sweepLocked(now time.Time) {
	for k, v := range s.entries {
		if now.After(v.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// len reports the number of live entries, for tests.
func (s *MemoryStore[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
