package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	GenerationKey    = "hierarchy:generation"
	SubtreeKeyPrefix = "hierarchy:subtree:"
)

// SubtreeKey is the cache key of one user's subtree under a generation.
func SubtreeKey(generation, userID string) string {
	return fmt.Sprintf("%s%s:%s", SubtreeKeyPrefix, generation, userID)
}

// CachedResolver memoizes subtrees in Redis. Keys embed a generation counter
// so a single INCR invalidates every cached subtree at once.
type CachedResolver struct {
	next hierarchy.Resolver
	rdb  *redis.Client
	ttl  time.Duration
	sf   *singleflight.Group

	newGeneration func() string
}

func NewCachedResolver(next hierarchy.Resolver, rdb *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		sf:   &singleflight.Group{},

		newGeneration: uuid.NewString,
	}
}

// SubtreeOf implements hierarchy.Resolver. Redis failures fall through to
// the underlying resolver.
func (c *CachedResolver) SubtreeOf(ctx context.Context, userID string) ([]string, error) {
	generation, err := c.rdb.Get(ctx, GenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		generation = "0"
	} else if err != nil {
		slog.Warn("Hierarchy cache unavailable", "error", err)
		return c.next.SubtreeOf(ctx, userID)
	}

	cacheKey := SubtreeKey(generation, userID)
	if cached, err := c.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var ids []string
		if json.Unmarshal([]byte(cached), &ids) == nil {
			return ids, nil
		}
	}

	v, err, _ := c.sf.Do(cacheKey, func() (interface{}, error) {
		ids, err := c.next.SubtreeOf(ctx, userID)
		if err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(ids); err == nil {
			if err := c.rdb.Set(ctx, cacheKey, string(payload), c.ttl).Err(); err != nil {
				slog.Warn("Failed to cache subtree", "user_id", userID, "error", err)
			}
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]string), nil
}

// Invalidate implements hierarchy.Invalidator. When INCR fails the
// generation is overwritten with a fresh random value instead, so no earlier
// subtree key can be read again.
func (c *CachedResolver) Invalidate(ctx context.Context) error {
	incrErr := c.rdb.Incr(ctx, GenerationKey).Err()
	if incrErr == nil {
		return nil
	}

	slog.Warn("Hierarchy generation INCR failed, replacing it", "error", incrErr)
	if err := c.rdb.Set(ctx, GenerationKey, c.newGeneration(), 0).Err(); err != nil {
		return fmt.Errorf("failed to bump hierarchy generation: %w", errors.Join(incrErr, err))
	}
	return nil
}
