package usecases

import (
	"context"
	"fmt"

	"threadmind/internal/domain/indexing"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type CancelIndexingResult struct {
	JobsCleared  int
	ItemsCleared int
}

type CancelIndexingUseCase struct {
	jobs   indexing.JobRepository
	lock   QueueLocker
	logger logger.Interface
}

func NewCancelIndexingUseCase(jobs indexing.JobRepository, lock QueueLocker, logger logger.Interface) *CancelIndexingUseCase {
	return &CancelIndexingUseCase{jobs: jobs, lock: lock, logger: logger}
}

// Execute cancels every non-terminal job in one transaction. Items already
// submitted keep their consumed credits; only pending work is cleared.
func (uc *CancelIndexingUseCase) Execute(ctx context.Context) (*CancelIndexingResult, error) {
	release, ok, err := uc.lock.Acquire(ctx, QueueLockScope)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire queue lock: %w", err)
	}
	if !ok {
		return nil, apperrors.NewConflictError("a drain pass is running, try again shortly")
	}
	defer release()

	jobs, items, err := uc.jobs.CancelAll(ctx)
	if err != nil {
		uc.logger.Errorw("failed to cancel indexing jobs", "error", err)
		return nil, fmt.Errorf("failed to cancel indexing jobs: %w", err)
	}

	uc.logger.Infow("indexing queue cancelled", "jobs_cleared", jobs, "items_cleared", items)
	return &CancelIndexingResult{JobsCleared: jobs, ItemsCleared: items}, nil
}
