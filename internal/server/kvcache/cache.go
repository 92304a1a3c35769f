// Package kvcache defines the key/value cache used for product snapshots
// and the token blacklist, with Redis, in-memory and no-op
// implementations. Entries are never the source of truth; every
// implementation may lose them at any time.
package kvcache

import (
	"context"
	"time"
)

type Cache interface {
	// Get returns the stored value, or (nil, nil) on a miss. A miss and
	// an expired entry are indistinguishable.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key currently holds an unexpired entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Ping checks backend liveness.
	Ping(ctx context.Context) error
}
