package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "odyssey:revoked:"

// RedisLedger keeps revocations as keys that expire with the token.
type RedisLedger struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisLedger constructs a Redis backed ledger.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client, now: time.Now}
}

// Revoke marks jti revoked until expiresAt. Tokens already past expiry need
// no record.
func (l *RedisLedger) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		return nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := l.client.SetNX(ctx, revokedKeyPrefix+jti, l.now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("auth: redis revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (l *RedisLedger) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("auth: redis is revoked: %w", err)
	}
	return n > 0, nil
}

// WithClock returns a copy of the ledger reading time from now.
func (l *RedisLedger) WithClock(now func() time.Time) *RedisLedger {
	clone := *l
	clone.now = now
	return &clone
}
