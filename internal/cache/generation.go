// Package cache keeps per-pool generation counters in Redis.  Cached
// availability responses embed the generation in their key, so bumping a
// pool's counter retires every response computed before the write.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "poolgen"

// Generations reads and bumps pool generations.  A nil *Generations, or
// one without a client, reports generation 0 and ignores bumps.
type Generations struct {
	rdb    *redis.Client
	prefix string
}

// NewGenerations returns counters stored under prefix ("poolgen" when empty).
func NewGenerations(rdb *redis.Client, prefix string) *Generations {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Generations{rdb: rdb, prefix: prefix}
}

// Key is the Redis key holding poolID's generation.
func (g *Generations) Key(poolID string) string {
	prefix := defaultPrefix
	if g != nil && g.prefix != "" {
		prefix = g.prefix
	}
	return prefix + ":" + poolID
}

func (g *Generations) enabled() bool {
	return g != nil && g.rdb != nil
}

// Current returns the pool's generation.  Pools never bumped are at 0.
func (g *Generations) Current(ctx context.Context, poolID string) (int64, error) {
	if !g.enabled() {
		return 0, nil
	}
	n, err := g.rdb.Get(ctx, g.Key(poolID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: read generation of pool %s: %w", poolID, err)
	}
	return n, nil
}

// Bump advances the pool's generation.
func (g *Generations) Bump(ctx context.Context, poolID string) error {
	if !g.enabled() {
		return nil
	}
	if err := g.rdb.Incr(ctx, g.Key(poolID)).Err(); err != nil {
		return fmt.Errorf("cache: bump generation of pool %s: %w", poolID, err)
	}
	return nil
}
