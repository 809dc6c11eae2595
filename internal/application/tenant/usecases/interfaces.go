package usecases

import (
	"context"

	"threadmind/internal/domain/tenant"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/cache"
)

// CloudGateway is the slice of the AI cloud API the tenant context needs.
type CloudGateway interface {
	RegisterTenant(ctx context.Context, siteURL, contactEmail string) (*aicloud.RegistrationResult, error)
	GetStatus(ctx context.Context, apiKey, tenantID string) (*tenant.AccountStatus, error)
	Disconnect(ctx context.Context, apiKey, tenantID, reason string) error
}

// KeyCipher seals and opens the API key at rest.
type KeyCipher interface {
	Encrypt(plaintext string) ([]byte, error)
	Decrypt(ciphertext []byte) (string, error)
}

// SnapshotCache mirrors the credit balance cache operations used here.
type SnapshotCache interface {
	Put(ctx context.Context, snap *cache.CreditSnapshot) error
	Invalidate(ctx context.Context) error
}

// JobCanceller clears the indexing queue when the installation detaches.
type JobCanceller interface {
	CancelAll(ctx context.Context) (jobsCleared int, itemsCleared int, err error)
}
