package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listKey = "imagevault:images:list"

	// listTTL bounds staleness if an invalidation is ever lost.
	listTTL = time.Minute
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(address string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: address,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) GetList(ctx context.Context) ([]byte, error) {
	payload, err := c.client.Get(ctx, listKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *RedisCache) SetList(ctx context.Context, payload []byte) error {
	return c.client.Set(ctx, listKey, payload, listTTL).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, listKey).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
