package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// snapshotKey holds the serialized result of the most recent scan run.
const snapshotKey = "snapshot:latest"

// snapshotTTL bounds staleness: a snapshot older than a few scan intervals
// is worse than no snapshot.
const snapshotTTL = 6 * time.Hour

// SnapshotCache implements domain.SnapshotCache using a single Redis key.
// New websocket subscribers replay the latest snapshot from here instead of
// waiting for the next scan to complete.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

// SetLatest stores the serialized snapshot, replacing any previous one.
func (sc *SnapshotCache) SetLatest(ctx context.Context, payload []byte) error {
	if err := sc.rdb.Set(ctx, snapshotKey, payload, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot: %w", err)
	}
	return nil
}

// GetLatest returns the most recent snapshot, or domain.ErrNotFound when no
// scan has completed since the cache expired.
func (sc *SnapshotCache) GetLatest(ctx context.Context) ([]byte, error) {
	payload, err := sc.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get snapshot: %w", err)
	}
	return payload, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
