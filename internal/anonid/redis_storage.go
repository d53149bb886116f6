package anonid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTTL keeps an anonymous identity for a year after its last write.
const DefaultRedisTTL = 365 * 24 * time.Hour

// RedisStorage implements Storage on Redis under a per-device key prefix.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage creates a Storage for one device.
func NewRedisStorage(client *redis.Client, deviceID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: "anon:" + deviceID + ":",
		ttl:    ttl,
	}
}

// NewRedisStorageFactory returns a factory of RedisStorage sharing one client.
func NewRedisStorageFactory(client *redis.Client, ttl time.Duration) StorageFactory {
	return func(deviceID string) Storage {
		return NewRedisStorage(client, deviceID, ttl)
	}
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores the value only if the key is still absent, so two concurrent
// first requests of a device settle on the same identity.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.SetNX(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
