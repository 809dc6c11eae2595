package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const creditBalanceKey = "credits:balance"

// CreditSnapshot is the cached view of the remote credit ledger. FetchedAt
// lets callers judge staleness against their own bound.
type CreditSnapshot struct {
	Remaining int       `json:"remaining"`
	Total     int       `json:"total"`
	Plan      string    `json:"plan"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CreditBalanceCache keeps a short-lived snapshot of the remote balance so
// every task gate and plan estimate does not cost a remote call.
type CreditBalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCreditBalanceCache(client *redis.Client, ttl time.Duration) *CreditBalanceCache {
	return &CreditBalanceCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot, or (nil, nil) when absent or evicted.
func (c *CreditBalanceCache) Get(ctx context.Context) (*CreditSnapshot, error) {
	data, err := c.client.Get(ctx, creditBalanceKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credit snapshot: %w", err)
	}
	var snap CreditSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode credit snapshot: %w", err)
	}
	return &snap, nil
}

// Put stores a fresh snapshot under the configured TTL.
func (c *CreditBalanceCache) Put(ctx context.Context, snap *CreditSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode credit snapshot: %w", err)
	}
	ttl := c.ttl
	if ttl <= 0 {
		// Zero TTL means callers always refetch; keep the key only briefly so
		// debugging tools can still inspect the last value.
		ttl = time.Second
	}
	if err := c.client.Set(ctx, creditBalanceKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store credit snapshot: %w", err)
	}
	return nil
}

// AdjustRemaining decrements the cached remaining balance after a unit of
// metered work, keeping the TTL intact. Missing key is a no-op; the next Get
// will refetch.
func (c *CreditBalanceCache) AdjustRemaining(ctx context.Context, delta int) error {
	snap, err := c.Get(ctx)
	if err != nil || snap == nil {
		return err
	}
	snap.Remaining += delta
	if snap.Remaining < 0 {
		snap.Remaining = 0
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode credit snapshot: %w", err)
	}
	return c.client.Set(ctx, creditBalanceKey, data, redis.KeepTTL).Err()
}

// Invalidate drops the snapshot, forcing a live fetch on next read.
func (c *CreditBalanceCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, creditBalanceKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate credit snapshot: %w", err)
	}
	return nil
}
