package kvcache

import (
	"context"
	"time"
)

// Noop is the degraded-mode cache: every lookup misses and every write
// silently succeeds. With it in place the service runs correctly but
// uncached. Blacklist writes are accepted without being durable, so
// callers that care are expected to inspect the resolved mode.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (Noop) Delete(ctx context.Context, key string) error {
	return nil
}

func (Noop) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (Noop) Ping(ctx context.Context) error {
	return nil
}
