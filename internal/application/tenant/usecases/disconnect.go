package usecases

import (
	"context"
	"fmt"

	"threadmind/internal/domain/tenant"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type DisconnectCommand struct {
	Reason string
}

// DisconnectResult reports what local state was cleared alongside the remote
// detach.
type DisconnectResult struct {
	JobsCleared    int
	ItemsCleared   int
	RemoteNotified bool
}

type DisconnectUseCase struct {
	accounts tenant.Repository
	markers  tenant.MarkerStore
	cipher   KeyCipher
	cloud    CloudGateway
	snapshot SnapshotCache
	jobs     JobCanceller
	logger   logger.Interface
}

func NewDisconnectUseCase(
	accounts tenant.Repository,
	markers tenant.MarkerStore,
	cipher KeyCipher,
	cloud CloudGateway,
	snapshot SnapshotCache,
	jobs JobCanceller,
	logger logger.Interface,
) *DisconnectUseCase {
	return &DisconnectUseCase{
		accounts: accounts,
		markers:  markers,
		cipher:   cipher,
		cloud:    cloud,
		snapshot: snapshot,
		jobs:     jobs,
		logger:   logger,
	}
}

// Execute detaches the installation. Local cleanup always runs; a failed
// remote notification is reported but does not abort it, since the account
// record is the only thing that makes the installation "connected".
func (uc *DisconnectUseCase) Execute(ctx context.Context, cmd DisconnectCommand) (*DisconnectResult, error) {
	account, err := uc.accounts.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant account: %w", err)
	}
	if account == nil {
		return nil, apperrors.NewNotFoundError("installation is not connected")
	}

	result := &DisconnectResult{}
	if apiKey, derr := uc.cipher.Decrypt(account.APIKeyCipher()); derr != nil {
		uc.logger.Warnw("cannot decrypt API key, skipping remote disconnect", "error", derr)
	} else if rerr := uc.cloud.Disconnect(ctx, apiKey, account.TenantID(), cmd.Reason); rerr != nil {
		uc.logger.Warnw("remote disconnect failed, continuing local cleanup",
			"tenant_id", account.TenantID(), "error", rerr)
	} else {
		result.RemoteNotified = true
	}

	jobs, items, err := uc.jobs.CancelAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel indexing jobs: %w", err)
	}
	result.JobsCleared = jobs
	result.ItemsCleared = items

	if err := uc.accounts.Delete(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete tenant account: %w", err)
	}
	if err := uc.markers.Delete(ctx); err != nil {
		uc.logger.Warnw("failed to clear pending marker", "error", err)
	}
	if err := uc.snapshot.Invalidate(ctx); err != nil {
		uc.logger.Warnw("failed to invalidate credit snapshot", "error", err)
	}

	uc.logger.Infow("installation disconnected",
		"tenant_id", account.TenantID(),
		"reason", cmd.Reason,
		"jobs_cleared", jobs,
		"items_cleared", items,
		"remote_notified", result.RemoteNotified,
	)
	return result, nil
}
