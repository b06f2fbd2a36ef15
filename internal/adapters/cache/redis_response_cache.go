package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisResponseCache stores memoized upstream responses with per-key TTL.
type RedisResponseCache struct {
	client *redis.Client
}

// NewRedisResponseCache creates the shared response cache adapter.
func NewRedisResponseCache(client *redis.Client) *RedisResponseCache {
	return &RedisResponseCache{client: client}
}

func (c *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.client.Get(ctx, "portal:response:"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

func (c *RedisResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, "portal:response:"+key, value, ttl).Err()
}

func (c *RedisResponseCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, "portal:response:"+key).Err()
}
