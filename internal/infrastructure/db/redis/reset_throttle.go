package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultResetCooldown is the minimum gap between two reset requests for the
// same email.
const DefaultResetCooldown = time.Minute

// ResetThrottle rate-limits password reset requests per email using SETNX
// keys that expire after the cooldown.
// Key format: reset:cooldown:<lowercased email>
type ResetThrottle struct {
	client   *redis.Client
	cooldown time.Duration
}

// NewResetThrottle creates a ResetThrottle wrapping the given Redis client.
func NewResetThrottle(client *redis.Client, cooldown time.Duration) *ResetThrottle {
	if cooldown <= 0 {
		cooldown = DefaultResetCooldown
	}
	return &ResetThrottle{client: client, cooldown: cooldown}
}

// Allow reports whether a reset may be requested for email now. A true
// result opens a new cooldown window.
func (t *ResetThrottle) Allow(ctx context.Context, email string) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.key(email), "1", t.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("reset throttle: %w", err)
	}
	return ok, nil
}

// Release deletes the cooldown key for email.
func (t *ResetThrottle) Release(ctx context.Context, email string) error {
	if err := t.client.Del(ctx, t.key(email)).Err(); err != nil {
		return fmt.Errorf("reset throttle release: %w", err)
	}
	return nil
}

func (t *ResetThrottle) key(email string) string {
	return "reset:cooldown:" + strings.ToLower(strings.TrimSpace(email))
}
