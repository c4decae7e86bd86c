package store

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"
)

// Redis is the production KV backend.  Session records are plain string
// keys; TTLs on the short-lived markers double as garbage collection for
// abandoned signups.
type Redis struct {
    rdb *redis.Client
}

// NewRedis wraps an already-connected client.
func NewRedis(rdb *redis.Client) *Redis {
    return &Redis{rdb: rdb}
}

// Get returns the value for key; a redis.Nil reply reads as absent.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
    val, err := r.rdb.Get(ctx, key).Bytes()
    if err == redis.Nil {
        return nil, false, nil
    }
    if err != nil {
        return nil, false, err
    }
    return val, true, nil
}

// Set stores val under key.  A zero ttl stores without expiry.
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
    return r.rdb.Set(ctx, key, val, ttl).Err()
}

// Del removes the given keys; missing keys are not an error.
func (r *Redis) Del(ctx context.Context, keys ...string) error {
    if len(keys) == 0 {
        return nil
    }
    return r.rdb.Del(ctx, keys...).Err()
}
