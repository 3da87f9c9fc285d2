package cartcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the per-user cart item count in redis so the storefront header
// does not hit the database on every page. It replaces ambient session
// state: populated on demand, invalidated on every cart mutation.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &Cache{rdb: rdb, ttl: 30 * time.Minute}
}

func key(userID uint) string {
	return fmt.Sprintf("cart_count:%d", userID)
}

// Get returns the cached count and whether it was present. A nil Cache
// always misses, callers fall back to the database.
func (c *Cache) Get(ctx context.Context, userID uint) (int64, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	n, err := c.rdb.Get(ctx, key(userID)).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Cache) Set(ctx context.Context, userID uint, count int64) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, key(userID), count, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, userID uint) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, key(userID)).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
