package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "lock:overdue_sweep"

// releaseScript deletes the lock only when this holder still owns it, so a
// slow sweep cannot release a lock a newer run has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock is the Redis-backed advisory lock for the overdue sweeper.
type SweepLock struct {
	client *redis.Client
	holder string
}

// NewSweepLock creates a SweepLock with a unique holder id per process.
func NewSweepLock(client *redis.Client) *SweepLock {
	return &SweepLock{client: client, holder: uuid.NewString()}
}

// TryAcquire attempts to take the lock for ttl; false means another process
// holds it.
func (l *SweepLock) TryAcquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, sweepLockKey, l.holder, ttl).Result()
}

// Release frees the lock if still held by this process.
func (l *SweepLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{sweepLockKey}, l.holder).Err()
}
