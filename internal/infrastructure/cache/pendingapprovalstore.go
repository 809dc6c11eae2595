package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"threadmind/internal/domain/tenant"
)

const (
	// pendingMarkerKey holds the single pending-approval marker for the
	// installation.
	pendingMarkerKey = "tenant:pending_marker"
)

// PendingApprovalStore implements tenant.MarkerStore on redis. The marker's
// redis TTL matches the resolver's 24h trust window, so an expired marker
// simply vanishes.
type PendingApprovalStore struct {
	client *redis.Client
}

func NewPendingApprovalStore(client *redis.Client) *PendingApprovalStore {
	return &PendingApprovalStore{client: client}
}

// Get returns the marker, or (nil, nil) when absent or expired.
func (s *PendingApprovalStore) Get(ctx context.Context) (*tenant.PendingMarker, error) {
	data, err := s.client.Get(ctx, pendingMarkerKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending marker: %w", err)
	}

	var marker tenant.PendingMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("failed to decode pending marker: %w", err)
	}
	// Belt and braces: the TTL should have evicted it, but clock skew between
	// registration and redis must not extend the trust window.
	if marker.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return &marker, nil
}

func (s *PendingApprovalStore) Put(ctx context.Context, marker *tenant.PendingMarker) error {
	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("failed to encode pending marker: %w", err)
	}
	ttl := tenant.PendingMarkerTTL - time.Now().UTC().Sub(marker.RegisteredAt)
	if ttl <= 0 {
		return fmt.Errorf("refusing to store already-expired pending marker")
	}
	if err := s.client.Set(ctx, pendingMarkerKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pending marker: %w", err)
	}
	return nil
}

func (s *PendingApprovalStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, pendingMarkerKey).Err(); err != nil {
		return fmt.Errorf("failed to delete pending marker: %w", err)
	}
	return nil
}
