package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fly-arb/fly/internal/arb"
	"github.com/fly-arb/fly/internal/domain"
)

// reserveTTL bounds how long a cached snapshot is trusted after the last
// sync. A pool quiet for longer than this is re-read from the database.
const reserveTTL = 24 * time.Hour

// ReserveCache implements domain.ReserveCache: the latest reserve snapshot
// per pool, keyed by pool address, for fast rehydration after a restart.
type ReserveCache struct {
	rdb *redis.Client
}

// NewReserveCache creates a ReserveCache backed by the given Client.
func NewReserveCache(c *Client) *ReserveCache {
	return &ReserveCache{rdb: c.Underlying()}
}

func reserveKey(pool arb.PoolID) string {
	return "fly:reserves:" + pool.String()
}

// Set stores the snapshot for the update's pool.
func (rc *ReserveCache) Set(ctx context.Context, update domain.ReserveUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("redis: marshal reserve snapshot: %w", err)
	}
	if err := rc.rdb.Set(ctx, reserveKey(update.Pool), payload, reserveTTL).Err(); err != nil {
		return fmt.Errorf("redis: set reserves %s: %w", update.Pool, err)
	}
	return nil
}

// Get returns the latest snapshot for a pool, or domain.ErrNotFound.
func (rc *ReserveCache) Get(ctx context.Context, pool arb.PoolID) (domain.ReserveUpdate, error) {
	payload, err := rc.rdb.Get(ctx, reserveKey(pool)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ReserveUpdate{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ReserveUpdate{}, fmt.Errorf("redis: get reserves %s: %w", pool, err)
	}

	var update domain.ReserveUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return domain.ReserveUpdate{}, fmt.Errorf("redis: unmarshal reserve snapshot %s: %w", pool, err)
	}
	return update, nil
}

// Invalidate removes the snapshot for a pool.
func (rc *ReserveCache) Invalidate(ctx context.Context, pool arb.PoolID) error {
	if err := rc.rdb.Del(ctx, reserveKey(pool)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate reserves %s: %w", pool, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ReserveCache = (*ReserveCache)(nil)
