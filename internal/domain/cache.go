package domain

import (
	"context"
	"time"
)

// SignalBus provides pub/sub delivery of scan events to subscribers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// SnapshotCache holds the most recently published snapshot so new
// subscribers can be served immediately without waiting for the next run.
type SnapshotCache interface {
	SetLatest(ctx context.Context, payload []byte) error
	GetLatest(ctx context.Context) ([]byte, error)
}

// LockManager provides distributed locking. The orchestrator uses it as the
// single-run-in-flight guard.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter enforces a sliding-window request limit per key. The HTTP API
// uses it for per-client throttling.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under the limit;
	// an allowed request is counted against the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
