package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	drainLockPrefix = "indexing:lock:"
	// DrainLockTTL bounds how long a crashed holder can block the queue.
	DrainLockTTL = 10 * time.Minute
)

// releaseScript deletes the lock only when the caller still owns it, so a
// holder that outlived its TTL cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// DrainLock is the advisory lock serializing Enqueue, DrainNext and
// CancelAll for a job scope. Overlapping wake-ups contend on SetNX; the
// loser skips its turn rather than waiting.
type DrainLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDrainLock(client *redis.Client) *DrainLock {
	return &DrainLock{client: client, ttl: DrainLockTTL}
}

// Acquire attempts to take the lock for the scope. It returns a release
// function on success and ok=false when another holder has it.
func (l *DrainLock) Acquire(ctx context.Context, scope string) (release func(), ok bool, err error) {
	key := drainLockPrefix + scope
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire drain lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release = func() {
		// Release on a background context: the caller's context may already
		// be done, and an unreleased lock stalls the queue for a full TTL.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}
