package cache

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// LevelCache keeps each user's current level in Redis so quest prerequisite
// checks avoid a ledger read. Fail-open: if Redis is unavailable every read
// is a miss and callers fall back to the ledger.
type LevelCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLevelCache(client *redis.Client, ttl time.Duration) *LevelCache {
	return &LevelCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *LevelCache) key(userID string) string {
	return "lvl:" + userID
}

func (c *LevelCache) GetLevel(ctx context.Context, userID string) (int, bool) {
	if c.client == nil {
		return 0, false
	}

	val, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		return 0, false
	}
	level, err := strconv.Atoi(val)
	if err != nil || level < 1 {
		return 0, false
	}
	return level, true
}

func (c *LevelCache) SetLevel(ctx context.Context, userID string, level int) {
	if c.client == nil {
		return
	}
	c.client.Set(ctx, c.key(userID), level, c.ttl)
}
