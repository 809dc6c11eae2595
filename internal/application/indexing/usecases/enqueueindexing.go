package usecases

import (
	"context"
	"fmt"
	"time"

	"threadmind/internal/application/indexing/services"
	"threadmind/internal/domain/indexing"
	sharedConfig "threadmind/internal/shared/config"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type EnqueueIndexingCommand struct {
	ItemIDs   []uint
	ChunkSize int
	// OverlapPercent is nil when the caller wants the configured default.
	// Zero is a valid explicit choice, so absence needs its own signal.
	OverlapPercent *int
}

// EnqueueIndexingResult reports what was actually queued. Items already held
// by a non-terminal job are skipped, not errors: a double-click on "index
// everything" should not fail the whole batch.
type EnqueueIndexingResult struct {
	JobID           string
	Queued          int
	AlreadyQueued   []uint
	Unchanged       int
	SkippedEmpty    []uint
	CreditsReserved int
}

type EnqueueIndexingUseCase struct {
	planner *services.Planner
	jobs    indexing.JobRepository
	gate    CreditGate
	lock    QueueLocker
	cfg     sharedConfig.IndexingConfig
	logger  logger.Interface
}

func NewEnqueueIndexingUseCase(
	planner *services.Planner,
	jobs indexing.JobRepository,
	gate CreditGate,
	lock QueueLocker,
	cfg sharedConfig.IndexingConfig,
	logger logger.Interface,
) *EnqueueIndexingUseCase {
	return &EnqueueIndexingUseCase{
		planner: planner,
		jobs:    jobs,
		gate:    gate,
		lock:    lock,
		cfg:     cfg,
		logger:  logger,
	}
}

func (uc *EnqueueIndexingUseCase) Execute(ctx context.Context, cmd EnqueueIndexingCommand) (*EnqueueIndexingResult, error) {
	release, ok, err := uc.lock.Acquire(ctx, QueueLockScope)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire queue lock: %w", err)
	}
	if !ok {
		return nil, apperrors.NewConflictError("indexing queue is busy, try again shortly")
	}
	defer release()

	params := indexing.ChunkParams{ChunkSize: cmd.ChunkSize, OverlapPercent: uc.cfg.OverlapPercent}
	if params.ChunkSize == 0 {
		params.ChunkSize = uc.cfg.ChunkSize
	}
	if cmd.OverlapPercent != nil {
		params.OverlapPercent = *cmd.OverlapPercent
	}

	plan, err := uc.planner.Plan(ctx, cmd.ItemIDs, params, uc.cfg)
	if err != nil {
		return nil, err
	}

	result := &EnqueueIndexingResult{
		Unchanged:    plan.Unchanged,
		SkippedEmpty: plan.SkippedEmpty,
	}

	held, err := uc.jobs.NonTerminalItemIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check queued items: %w", err)
	}
	// The reservation only covers items that survived the one-job-per-item
	// guard.
	var toQueue []uint
	credits := 0
	for _, id := range plan.ToSubmit {
		if held[id] {
			result.AlreadyQueued = append(result.AlreadyQueued, id)
			continue
		}
		toQueue = append(toQueue, id)
		credits += plan.ItemCredits[id]
	}

	if len(toQueue) == 0 {
		uc.logger.Infow("nothing to enqueue",
			"unchanged", plan.Unchanged, "already_queued", len(result.AlreadyQueued))
		return result, nil
	}

	affordable, remaining, err := uc.gate.CanAfford(ctx, credits, time.Duration(0))
	if err != nil {
		return nil, err
	}
	if !affordable {
		return nil, apperrors.NewInsufficientCreditsError(
			fmt.Sprintf("batch needs %d credits but only %d remain", credits, remaining))
	}

	job, err := indexing.NewJob(toQueue, params, credits)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		uc.logger.Errorw("failed to create indexing job", "items", len(toQueue), "error", err)
		return nil, fmt.Errorf("failed to create indexing job: %w", err)
	}

	result.JobID = job.JobID()
	result.Queued = len(toQueue)
	result.CreditsReserved = credits

	uc.logger.Infow("indexing job enqueued",
		"job_id", job.JobID(),
		"items", len(toQueue),
		"credits_reserved", credits,
		"already_queued", len(result.AlreadyQueued),
		"unchanged", plan.Unchanged,
	)
	return result, nil
}
