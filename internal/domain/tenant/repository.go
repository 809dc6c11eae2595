package tenant

import "context"

// Repository persists the single tenant account.
type Repository interface {
	// Get returns the stored account, or nil when the installation is not
	// connected.
	Get(ctx context.Context) (*Account, error)
	Save(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	// Delete clears all account fields as part of disconnect.
	Delete(ctx context.Context) error
}
