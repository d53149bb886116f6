// Package presence tracks which signed-in users currently hold an open
// WebSocket connection and pushes online/offline changes to subscribers.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "presence:"

// Tracker stores the ephemeral online flag of a user.
type Tracker interface {
	// SetOnline marks the user online, refreshing the flag's expiry.
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// RedisTracker keeps presence:<uid> keys that expire unless refreshed.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTracker creates a RedisTracker whose flags expire after ttl.
func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) SetOnline(ctx context.Context, userID string) error {
	if err := t.client.Set(ctx, keyPrefix+userID, "online", t.ttl).Err(); err != nil {
		return fmt.Errorf("set presence for %s: %w", userID, err)
	}
	return nil
}

func (t *RedisTracker) SetOffline(ctx context.Context, userID string) error {
	if err := t.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("clear presence for %s: %w", userID, err)
	}
	return nil
}

func (t *RedisTracker) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := t.client.Exists(ctx, keyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("read presence for %s: %w", userID, err)
	}
	return n > 0, nil
}
