package usecases

import (
	"context"
	"fmt"

	"threadmind/internal/domain/indexing"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/shared/logger"
)

type GetProgressQuery struct {
	// IncludeRemote additionally fetches the cloud's per-forum counts, at the
	// cost of a remote round trip.
	IncludeRemote bool
}

type ActiveJobProgress struct {
	JobID           string
	Status          indexing.JobStatus
	Pending         int
	Completed       int
	Failed          int
	CreditsReserved int
	CreditsConsumed int
}

type ProgressResult struct {
	IndexedItems int64
	ActiveJob    *ActiveJobProgress
	RemoteCounts []aicloud.ForumIndexCount
}

type GetProgressUseCase struct {
	jobs   indexing.JobRepository
	items  indexing.ItemRepository
	cloud  CloudIndexer
	creds  CredentialResolver
	logger logger.Interface
}

func NewGetProgressUseCase(
	jobs indexing.JobRepository,
	items indexing.ItemRepository,
	cloud CloudIndexer,
	creds CredentialResolver,
	logger logger.Interface,
) *GetProgressUseCase {
	return &GetProgressUseCase{jobs: jobs, items: items, cloud: cloud, creds: creds, logger: logger}
}

func (uc *GetProgressUseCase) Execute(ctx context.Context, query GetProgressQuery) (*ProgressResult, error) {
	indexed, err := uc.items.CountIndexed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count indexed items: %w", err)
	}
	result := &ProgressResult{IndexedItems: indexed}

	job, err := uc.jobs.NextActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active job: %w", err)
	}
	if job != nil {
		pending, completed, failed := job.Counts()
		result.ActiveJob = &ActiveJobProgress{
			JobID:           job.JobID(),
			Status:          job.Status(),
			Pending:         pending,
			Completed:       completed,
			Failed:          failed,
			CreditsReserved: job.CreditsReserved(),
			CreditsConsumed: job.CreditsConsumed(),
		}
	}

	if query.IncludeRemote {
		creds, err := uc.creds.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		counts, err := uc.cloud.IndexedCountsByForum(ctx, creds.APIKey)
		if err != nil {
			// The local view is still useful when the remote is unreachable.
			uc.logger.Warnw("failed to fetch remote index counts", "error", err)
		} else {
			result.RemoteCounts = counts
		}
	}
	return result, nil
}
