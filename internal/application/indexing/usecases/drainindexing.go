package usecases

import (
	"context"
	"fmt"
	"time"

	"threadmind/internal/application/indexing/services"
	"threadmind/internal/domain/content"
	"threadmind/internal/domain/indexing"
	"threadmind/internal/infrastructure/aicloud"
	sharedConfig "threadmind/internal/shared/config"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type DrainIndexingCommand struct {
	// BatchSize caps submissions this pass; zero means the configured default.
	BatchSize int
}

// DrainIndexingResult reports one drain pass. Skipped means another holder
// had the queue lock; the next wake-up will try again.
type DrainIndexingResult struct {
	JobID           string
	JobStatus       indexing.JobStatus
	Processed       int
	Succeeded       int
	Failed          int
	CreditsConsumed int
	HasMore         bool
	Skipped         bool
}

type DrainIndexingUseCase struct {
	jobs    indexing.JobRepository
	items   indexing.ItemRepository
	threads content.Repository
	texts   *services.TextPreparer
	cloud   CloudIndexer
	creds   CredentialResolver
	gate    CreditGate
	lock    QueueLocker
	cfg     sharedConfig.IndexingConfig
	logger  logger.Interface
}

func NewDrainIndexingUseCase(
	jobs indexing.JobRepository,
	items indexing.ItemRepository,
	threads content.Repository,
	texts *services.TextPreparer,
	cloud CloudIndexer,
	creds CredentialResolver,
	gate CreditGate,
	lock QueueLocker,
	cfg sharedConfig.IndexingConfig,
	logger logger.Interface,
) *DrainIndexingUseCase {
	return &DrainIndexingUseCase{
		jobs:    jobs,
		items:   items,
		threads: threads,
		texts:   texts,
		cloud:   cloud,
		creds:   creds,
		gate:    gate,
		lock:    lock,
		cfg:     cfg,
		logger:  logger,
	}
}

// Execute drains up to one batch of items, walking the queue oldest job
// first. A job found fully processed is closed out and the pass moves on to
// the next queued job within the same budget. Each item's outcome is recorded
// individually and the job is persisted after its batch, so an interrupted
// pass resumes without double-submitting.
func (uc *DrainIndexingUseCase) Execute(ctx context.Context, cmd DrainIndexingCommand) (*DrainIndexingResult, error) {
	release, ok, err := uc.lock.Acquire(ctx, QueueLockScope)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire queue lock: %w", err)
	}
	if !ok {
		return &DrainIndexingResult{Skipped: true}, nil
	}
	defer release()

	budget := cmd.BatchSize
	if budget <= 0 {
		budget = uc.cfg.BatchSize
	}

	result := &DrainIndexingResult{}
	apiKey := ""

	for budget > 0 {
		job, err := uc.jobs.NextActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch next job: %w", err)
		}
		if job == nil {
			break
		}

		if err := job.StartProcessing(); err != nil {
			return nil, apperrors.NewConflictError(err.Error())
		}
		if err := uc.jobs.Update(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to mark job processing: %w", err)
		}
		result.JobID = job.JobID()

		pending := job.PendingItems()
		if len(pending) == 0 {
			// Every item already has an outcome, typically a pass that was
			// interrupted after its last item. Close the job out and keep
			// draining; no budget was spent on it.
			if err := job.Finish(); err != nil {
				uc.logger.Errorw("failed to finish drained job", "job_id", job.JobID(), "error", err)
				break
			}
			if err := uc.jobs.Update(ctx, job); err != nil {
				return nil, fmt.Errorf("failed to persist job progress: %w", err)
			}
			result.JobStatus = job.Status()
			continue
		}

		if apiKey == "" {
			creds, err := uc.creds.Resolve(ctx)
			if err != nil {
				return nil, err
			}
			apiKey = creds.APIKey
		}

		if len(pending) > budget {
			pending = pending[:budget]
		}

		ids := make([]uint, len(pending))
		for n, it := range pending {
			ids[n] = it.ItemID
		}
		threads, err := uc.threads.GetByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load content for batch: %w", err)
		}

		creditsBefore := job.CreditsConsumed()
		stopped := false
		for _, pendingItem := range pending {
			outcome, stop := uc.submitOne(ctx, job, threads[pendingItem.ItemID], pendingItem.ItemID, apiKey)
			result.Processed++
			budget--
			if outcome {
				result.Succeeded++
			} else {
				result.Failed++
			}
			if stop {
				stopped = true
				break
			}
		}

		if len(job.PendingItems()) == 0 {
			if err := job.Finish(); err != nil {
				uc.logger.Errorw("failed to finish drained job", "job_id", job.JobID(), "error", err)
			}
		}
		if err := uc.jobs.Update(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to persist job progress: %w", err)
		}
		result.JobStatus = job.Status()

		consumed := job.CreditsConsumed() - creditsBefore
		if consumed > 0 {
			result.CreditsConsumed += consumed
			uc.gate.AfterConsumption(ctx, consumed)
		}

		// A stop means the remote refused further spend; a non-terminal job
		// means the batch cap cut it short. Either way this pass is over.
		if stopped || !job.Status().IsTerminal() {
			break
		}
	}

	if result.JobID == "" {
		return result, nil
	}

	if more, err := uc.jobs.HasActive(ctx); err == nil {
		result.HasMore = more
	}

	uc.logger.Infow("drain pass complete",
		"job_id", result.JobID,
		"status", result.JobStatus,
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"credits_consumed", result.CreditsConsumed,
		"has_more", result.HasMore,
	)
	return result, nil
}

// submitOne processes a single pending item. It returns whether the item
// succeeded and whether the batch must stop (remote says the tenant is out of
// credits; retrying the rest this pass would only burn requests).
func (uc *DrainIndexingUseCase) submitOne(ctx context.Context, job *indexing.Job, thread *content.Thread, itemID uint, apiKey string) (succeeded, stop bool) {
	if thread == nil {
		uc.failItem(job, itemID, "content no longer exists")
		return false, false
	}

	prepared, err := uc.texts.Prepare(thread.Title + "\n" + thread.Body)
	if err != nil {
		uc.failItem(job, itemID, "failed to prepare text: "+err.Error())
		return false, false
	}
	params := job.Params()
	chunks := uc.texts.Chunk(prepared, params.ChunkSize, params.OverlapPercent)
	if len(chunks) == 0 {
		uc.failItem(job, itemID, "no embeddable text")
		return false, false
	}
	fingerprint := uc.texts.Fingerprint(prepared)

	res, err := uc.cloud.SubmitItem(ctx, apiKey, aicloud.SubmitPayload{
		ItemID:         itemID,
		Chunks:         chunks,
		HasImage:       thread.HasImage,
		IndexImage:     thread.HasImage && uc.cfg.IndexImages,
		ContentHash:    fingerprint,
		ChunkSize:      params.ChunkSize,
		OverlapPercent: params.OverlapPercent,
	})
	if err != nil {
		uc.failItem(job, itemID, err.Error())
		if apperrors.IsInsufficientCreditsError(err) {
			uc.logger.Warnw("credits exhausted mid-batch, stopping pass", "job_id", job.JobID(), "item_id", itemID)
			return false, true
		}
		return false, false
	}

	if err := job.MarkItemDone(itemID, res.CreditsConsumed); err != nil {
		// The remote charged more than the reservation had left. The charge
		// stands either way; record the discrepancy and stop the pass.
		uc.logger.Errorw("charge exceeded reservation",
			"job_id", job.JobID(), "item_id", itemID,
			"charged", res.CreditsConsumed, "remaining", job.RemainingCredits(), "error", err)
		uc.failItem(job, itemID, "charge exceeded credit reservation")
		return false, true
	}

	record, err := indexing.NewItem(itemID, thread.HasImage)
	if err == nil {
		record.MarkIndexed(fingerprint, time.Now().UTC())
		if uerr := uc.items.Upsert(ctx, record); uerr != nil {
			uc.logger.Warnw("failed to persist item record", "item_id", itemID, "error", uerr)
		}
	}
	return true, false
}

func (uc *DrainIndexingUseCase) failItem(job *indexing.Job, itemID uint, reason string) {
	if err := job.MarkItemFailed(itemID, reason); err != nil {
		uc.logger.Errorw("failed to record item failure", "job_id", job.JobID(), "item_id", itemID, "error", err)
	}
}
