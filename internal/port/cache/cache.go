// Package cache defines the port interface for caching. The assistant
// pipeline uses it to memoize stage-1 formulate responses so identical
// re-asks skip a network round trip.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
