// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides the two-tier research cache: a bounded
// in-memory LRU in front of a persistent key-value tier, with TTL
// validity checks, promote-on-read, and detached cleanup.
package cache

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KV implementations for missing keys.
var ErrKeyNotFound = errors.New("key not found")

// KV is the persistent tier consumed by the cache. Implementations
// exist for SQLite and Redis.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Keys returns every stored key.
	Keys(ctx context.Context) ([]string, error)

	// Len returns the number of stored entries.
	Len(ctx context.Context) (int, error)
}
