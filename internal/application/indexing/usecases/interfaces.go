package usecases

import (
	"context"
	"time"

	tenantservices "threadmind/internal/application/tenant/services"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/cache"
)

// QueueLockScope serializes enqueue, drain and cancel for the single queue.
const QueueLockScope = "queue"

// CloudIndexer is the slice of the AI cloud API the indexing context needs.
type CloudIndexer interface {
	SubmitItem(ctx context.Context, apiKey string, payload aicloud.SubmitPayload) (*aicloud.SubmitResult, error)
	ClearAll(ctx context.Context, apiKey string) error
	IndexedCountsByForum(ctx context.Context, apiKey string) ([]aicloud.ForumIndexCount, error)
}

// CreditGate checks affordability before work and reconciles the cached
// balance after it.
type CreditGate interface {
	CanAfford(ctx context.Context, credits int, maxStale time.Duration) (bool, int, error)
	Balance(ctx context.Context, maxStale time.Duration) (*cache.CreditSnapshot, error)
	AfterConsumption(ctx context.Context, credits int)
}

// QueueLocker is the advisory lock guarding queue mutations.
type QueueLocker interface {
	Acquire(ctx context.Context, scope string) (release func(), ok bool, err error)
}

// CredentialResolver supplies decrypted call material.
type CredentialResolver interface {
	Resolve(ctx context.Context) (*tenantservices.Credentials, error)
}
