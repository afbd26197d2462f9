package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	presenceTTL  = 5 * time.Minute
	likeCountTTL = time.Hour
)

// RedisCache backs the presence registry and the project like-count cache.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes a Redis client.
// Only addr is mandatory, password/db are optional.
func NewRedisCache(addr, password string, db int) *RedisCache {
	opts := &redis.Options{
		Addr: addr,
	}
	if password != "" {
		opts.Password = password
	}
	if db != 0 {
		opts.DB = db
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// --- Presence ---

func presenceKey(userID uint) string {
	return fmt.Sprintf("presence:%d", userID)
}

// SetOnline records a user's presence with their last reported status.
// The TTL keeps stale entries from surviving a crashed server.
func (c *RedisCache) SetOnline(ctx context.Context, userID uint, status string) error {
	return c.Client.Set(ctx, presenceKey(userID), status, presenceTTL).Err()
}

// SetOffline clears a user's presence entry
func (c *RedisCache) SetOffline(ctx context.Context, userID uint) error {
	return c.Client.Del(ctx, presenceKey(userID)).Err()
}

// GetStatus returns the user's last reported status, or "" when offline
func (c *RedisCache) GetStatus(ctx context.Context, userID uint) (string, error) {
	val, err := c.Client.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// IsOnline reports whether a presence entry exists for the user
func (c *RedisCache) IsOnline(ctx context.Context, userID uint) (bool, error) {
	n, err := c.Client.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Like counts ---

// KeyForLikeCount generates the Redis key for a project's like count
func (c *RedisCache) KeyForLikeCount(projectID uint) string {
	return fmt.Sprintf("likes:count:%d", projectID)
}

// UpdateLikeCount refreshes the cached like count with a fresh TTL
func (c *RedisCache) UpdateLikeCount(ctx context.Context, projectID uint, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(projectID), count, likeCountTTL).Err()
}

// GetLikeCount returns the cached like count; (0, false) means cache miss
func (c *RedisCache) GetLikeCount(ctx context.Context, projectID uint) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForLikeCount(projectID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// InvalidateLikeCount drops the cached like count after a toggle
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, projectID uint) error {
	return c.Client.Del(ctx, c.KeyForLikeCount(projectID)).Err()
}
