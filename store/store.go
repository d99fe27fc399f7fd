// Package store persists the last successful location query in a single
// durable key-value slot.
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the slot name used when none is configured
const DefaultKey = "location"

// Slot is a single durable string value
type Slot interface {
	// Load returns the stored value, or "" if nothing was saved yet
	Load(ctx context.Context) (string, error)
	// Save replaces the stored value
	Save(ctx context.Context, value string) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a Slot backend
type Options struct {
	Backend       string
	Key           string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
}

// Open creates the Slot for the configured backend
func Open(ctx context.Context, opts Options) (Slot, error) {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}

	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLite(ctx, opts.SQLitePath, key)
	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr, Password: opts.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", opts.RedisAddr, err)
		}
		return NewRedis(rdb, key), nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
