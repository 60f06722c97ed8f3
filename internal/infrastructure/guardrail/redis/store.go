// Package redis provides the Redis guardrail store shared across service instances.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript adds to a float counter and applies the ttl only when the key has none.
var incrementScript = redis.NewScript(`
local value = redis.call('INCRBYFLOAT', KEYS[1], ARGV[1])
local ttl = tonumber(ARGV[2])
if ttl > 0 and redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return value
`)

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Store implements guardrail.Store for Redis.
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Increment atomically adds delta to the counter at key.
func (s *Store) Increment(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	raw, err := incrementScript.Run(ctx, s.client, []string{key},
		strconv.FormatFloat(delta, 'f', -1, 64), ttl.Milliseconds()).Text()
	if err != nil {
		return 0, fmt.Errorf("failed to increment key %s: %w", key, err)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse counter %s: %w", key, err)
	}
	return value, nil
}

// Get returns the counter value, or 0 when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (float64, error) {
	value, err := s.client.Get(ctx, key).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Expire resets the ttl of key. A ttl of 0 removes the expiry.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	var err error
	if ttl > 0 {
		err = s.client.PExpire(ctx, key, ttl).Err()
	} else {
		err = s.client.Persist(ctx, key).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to expire key %s: %w", key, err)
	}
	return nil
}

// Reset removes every key starting with prefix.
func (s *Store) Reset(ctx context.Context, prefix string) (int64, error) {
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys with prefix %s: %w", prefix, err)
		}

		if len(keys) > 0 {
			result, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += result
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}

// Ping checks if the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}
	return nil
}
