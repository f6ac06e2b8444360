package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses a redis:// URL and verifies the connection with PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	const op = "cache.Connect"

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rdb, nil
}

// SetJSON stores value as JSON under key with the given expiration.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache.SetJSON: %w", err)
	}
	return rdb.Set(ctx, key, data, expiration).Err()
}

// GetJSON loads key into result. found is false when the key does not exist.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, result any) (bool, error) {
	val, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache.GetJSON: %w", err)
	}

	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("cache.GetJSON: %w", err)
	}
	return true, nil
}

// UpdateJSON rewrites a JSON value while keeping its remaining TTL.
// found is false when the key does not exist.
func UpdateJSON(ctx context.Context, rdb *redis.Client, key string, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache.UpdateJSON: %w", err)
	}

	err = rdb.SetArgs(ctx, key, data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache.UpdateJSON: %w", err)
	}
	return true, nil
}

// Take atomically reads and deletes a JSON value.
func Take(ctx context.Context, rdb *redis.Client, key string, result any) (bool, error) {
	val, err := rdb.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache.Take: %w", err)
	}

	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("cache.Take: %w", err)
	}
	return true, nil
}
