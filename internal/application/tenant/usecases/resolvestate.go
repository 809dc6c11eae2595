package usecases

import (
	"context"
	"time"

	"threadmind/internal/domain/tenant"
	"threadmind/internal/shared/logger"
)

// StateResult is the resolved connection state plus whatever account detail
// the remote reported. Cause is only set when State is error.
type StateResult struct {
	State            tenant.ConnectionState
	Cause            string
	Plan             tenant.Plan
	CreditsRemaining int
	CreditsTotal     int
	Features         []string
	LastSyncedAt     time.Time
}

type ResolveStateUseCase struct {
	accounts tenant.Repository
	cipher   KeyCipher
	cloud    CloudGateway
	resolver *tenant.StateResolver
	snapshot SnapshotCache
	logger   logger.Interface
}

func NewResolveStateUseCase(
	accounts tenant.Repository,
	cipher KeyCipher,
	cloud CloudGateway,
	resolver *tenant.StateResolver,
	snapshot SnapshotCache,
	logger logger.Interface,
) *ResolveStateUseCase {
	return &ResolveStateUseCase{
		accounts: accounts,
		cipher:   cipher,
		cloud:    cloud,
		resolver: resolver,
		snapshot: snapshot,
		logger:   logger,
	}
}

// Execute derives the connection state. A remote failure never fails the
// call: it resolves to the error state with the cause attached.
func (uc *ResolveStateUseCase) Execute(ctx context.Context) (*StateResult, error) {
	account, err := uc.accounts.Get(ctx)
	if err != nil {
		uc.logger.Errorw("failed to load tenant account", "error", err)
		return nil, err
	}

	var (
		status    *tenant.AccountStatus
		remoteErr error
	)
	if account != nil {
		apiKey, derr := uc.cipher.Decrypt(account.APIKeyCipher())
		if derr != nil {
			remoteErr = derr
		} else {
			status, remoteErr = uc.cloud.GetStatus(ctx, apiKey, account.TenantID())
		}
	}

	if status != nil {
		uc.refreshAccount(ctx, account, status)
	}

	resolution := uc.resolver.Resolve(ctx, account != nil, status, remoteErr)

	result := &StateResult{State: resolution.State}
	if resolution.Cause != nil {
		result.Cause = resolution.Cause.Error()
	}
	if status != nil {
		result.Plan = status.Plan
		result.CreditsRemaining = status.CreditsRemaining
		result.CreditsTotal = status.CreditsTotal
		result.Features = status.Features
	}
	if account != nil {
		result.LastSyncedAt = account.LastSyncedAt()
	}

	uc.logger.Debugw("connection state resolved",
		"state", resolution.State, "has_account", account != nil, "remote_failed", remoteErr != nil)
	return result, nil
}

// refreshAccount persists the successful remote view and keeps the credit
// snapshot warm as a side effect of the same round trip.
func (uc *ResolveStateUseCase) refreshAccount(ctx context.Context, account *tenant.Account, status *tenant.AccountStatus) {
	now := time.Now().UTC()
	account.RefreshFromRemote(status.Status, status.Plan, status.Features, now)
	if err := uc.accounts.Update(ctx, account); err != nil {
		uc.logger.Warnw("failed to persist refreshed account", "error", err)
	}
	snap := newSnapshot(status, now)
	if err := uc.snapshot.Put(ctx, snap); err != nil {
		uc.logger.Warnw("failed to refresh credit snapshot", "error", err)
	}
}
