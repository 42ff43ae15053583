// Package cachemanager provides a typed, expiring in-memory cache.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values with a per-entry time to live.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
