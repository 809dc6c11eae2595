// Package services holds tenant-context domain services shared by usecases.
package services

import (
	"context"

	"threadmind/internal/domain/tenant"
	apperrors "threadmind/internal/shared/errors"
)

// Credentials is the decrypted call material for the AI cloud. It is built
// per call and never persisted in plaintext.
type Credentials struct {
	APIKey   string
	TenantID string
}

// Decrypter opens the API key ciphertext stored on the account.
type Decrypter interface {
	Decrypt(ciphertext []byte) (string, error)
}

// CredentialService resolves the stored account into usable call material.
type CredentialService struct {
	accounts tenant.Repository
	cipher   Decrypter
}

func NewCredentialService(accounts tenant.Repository, cipher Decrypter) *CredentialService {
	return &CredentialService{accounts: accounts, cipher: cipher}
}

// Resolve loads the account and decrypts its API key. Returns an auth error
// when the installation is not connected.
func (s *CredentialService) Resolve(ctx context.Context) (*Credentials, error) {
	account, err := s.accounts.Get(ctx)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.NewAuthError("installation is not connected to the AI cloud")
	}
	apiKey, err := s.cipher.Decrypt(account.APIKeyCipher())
	if err != nil {
		return nil, apperrors.NewAuthError("stored API key cannot be decrypted").WithCause(err)
	}
	return &Credentials{APIKey: apiKey, TenantID: account.TenantID()}, nil
}
