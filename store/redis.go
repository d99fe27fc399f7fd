package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSlot implements Slot as a single redis string without expiry
type RedisSlot struct {
	rdb *redis.Client
	key string
}

// NewRedis stores the slot under "classy-weather:"+key on rdb
func NewRedis(rdb *redis.Client, key string) *RedisSlot {
	return &RedisSlot{rdb: rdb, key: "classy-weather:" + key}
}

// Load returns the stored value, or "" if the key does not exist
func (s *RedisSlot) Load(ctx context.Context) (string, error) {
	v, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %q: %w", s.key, err)
	}
	return v, nil
}

// Save sets the key without expiry
func (s *RedisSlot) Save(ctx context.Context, value string) error {
	if err := s.rdb.Set(ctx, s.key, value, 0).Err(); err != nil {
		return fmt.Errorf("saving %q: %w", s.key, err)
	}
	return nil
}

// Close closes the redis client
func (s *RedisSlot) Close() error {
	return s.rdb.Close()
}
