package usecases

import (
	"context"
	"fmt"

	"threadmind/internal/domain/indexing"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type ClearIndexResult struct {
	JobsCleared  int
	ItemsCleared int
	FlagsReset   int64
}

type ClearIndexUseCase struct {
	jobs   indexing.JobRepository
	items  indexing.ItemRepository
	cloud  CloudIndexer
	creds  CredentialResolver
	lock   QueueLocker
	logger logger.Interface
}

func NewClearIndexUseCase(
	jobs indexing.JobRepository,
	items indexing.ItemRepository,
	cloud CloudIndexer,
	creds CredentialResolver,
	lock QueueLocker,
	logger logger.Interface,
) *ClearIndexUseCase {
	return &ClearIndexUseCase{jobs: jobs, items: items, cloud: cloud, creds: creds, lock: lock, logger: logger}
}

// Execute wipes the cloud-side index and resets local records so the next
// plan treats everything as new. The remote wipe happens first: resetting
// local flags against a still-populated remote index would just resubmit
// everything as "new" on top of stale vectors.
func (uc *ClearIndexUseCase) Execute(ctx context.Context) (*ClearIndexResult, error) {
	release, ok, err := uc.lock.Acquire(ctx, QueueLockScope)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire queue lock: %w", err)
	}
	if !ok {
		return nil, apperrors.NewConflictError("a drain pass is running, try again shortly")
	}
	defer release()

	creds, err := uc.creds.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.cloud.ClearAll(ctx, creds.APIKey); err != nil {
		uc.logger.Errorw("failed to clear remote index", "error", err)
		return nil, err
	}

	jobs, items, err := uc.jobs.CancelAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel indexing jobs: %w", err)
	}
	reset, err := uc.items.ResetAllFlags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset item flags: %w", err)
	}

	uc.logger.Infow("index cleared", "jobs_cleared", jobs, "items_cleared", items, "flags_reset", reset)
	return &ClearIndexResult{JobsCleared: jobs, ItemsCleared: items, FlagsReset: reset}, nil
}
