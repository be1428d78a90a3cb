package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each key as prefix+key. Useful when several CLI hosts
// share one session.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects and pings addr.
func NewRedisBackend(ctx context.Context, addr, password string, db int, prefix string) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}
	return NewRedisBackendFromClient(rdb, prefix), nil
}

func NewRedisBackendFromClient(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// Delete issues a single DEL for all keys.
func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	return r.client.Del(ctx, full...).Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
