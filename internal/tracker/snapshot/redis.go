package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore guarda o snapshot numa chave redis, sem expiração
type RedisStore struct {
	Client *redis.Client
	Key    string
}

// NewRedisStore cria o store na chave informada
func NewRedisStore(c *redis.Client, key string) *RedisStore {
	return &RedisStore{Client: c, Key: key}
}

func (r *RedisStore) Load(ctx context.Context) ([]byte, bool, error) {
	b, err := r.Client.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", r.Key, err)
	}
	return b, true, nil
}

func (r *RedisStore) Save(ctx context.Context, doc []byte) error {
	if err := r.Client.Set(ctx, r.Key, doc, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.Key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context) error {
	if err := r.Client.Del(ctx, r.Key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.Key, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error { return r.Client.Ping(ctx).Err() }
