package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes JWTs by jti, backed by Redis.
// Key format: revoked:<jti>, expiring with the token itself so the set never
// needs manual pruning.
type TokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist creates a TokenBlacklist wrapping the given Redis client.
func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke marks the jti as revoked for ttlSeconds.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttlSeconds int64) error {
	return b.client.Set(ctx, b.key(jti), "1", time.Duration(ttlSeconds)*time.Second).Err()
}

// IsRevoked reports whether the jti has been revoked.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist check: %w", err)
	}
	return n > 0, nil
}

func (b *TokenBlacklist) key(jti string) string {
	return "revoked:" + jti
}
