package generation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const reviewKeyPrefix = "codesage:review:"

// RedisCache keeps reviews in redis with a fixed TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func reviewKey(fingerprint string) string {
	return reviewKeyPrefix + fingerprint
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, reviewKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, review string) error {
	return c.client.Set(ctx, reviewKey(key), review, c.ttl).Err()
}
