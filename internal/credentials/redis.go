package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisKey is the fixed key the credential is saved under
const redisKey = "coursemarketer:" + storageKey

// RedisPersister shares one credential between server replicas.
type RedisPersister struct {
	rdb *redis.Client
}

func NewRedisPersister(rdb *redis.Client) *RedisPersister {
	return &RedisPersister{rdb: rdb}
}

// NewRedisPersisterFromURL parses a redis:// URL, falling back to treating
// it as a plain address.
func NewRedisPersisterFromURL(url string) *RedisPersister {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return NewRedisPersister(redis.NewClient(opt))
}

func (r *RedisPersister) Load(ctx context.Context) (string, error) {
	key, err := r.rdb.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return key, nil
}

func (r *RedisPersister) Save(ctx context.Context, key string) error {
	if err := r.rdb.Set(ctx, redisKey, key, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisPersister) Delete(ctx context.Context) error {
	if err := r.rdb.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisPersister) Close() error {
	return r.rdb.Close()
}
