package usecases

import (
	"context"

	"threadmind/internal/application/indexing/services"
	"threadmind/internal/domain/content"
	"threadmind/internal/domain/indexing"
	sharedConfig "threadmind/internal/shared/config"
	"threadmind/internal/shared/logger"
)

type PlanIndexingQuery struct {
	ItemIDs    []uint
	ForumIDs   []uint
	MaxAgeDays int
	ChunkSize  int
	// OverlapPercent is nil when the caller wants the configured default;
	// zero is a valid explicit choice.
	OverlapPercent *int
}

type PlanIndexingUseCase struct {
	planner *services.Planner
	threads content.Repository
	cfg     sharedConfig.IndexingConfig
	logger  logger.Interface
}

func NewPlanIndexingUseCase(
	planner *services.Planner,
	threads content.Repository,
	cfg sharedConfig.IndexingConfig,
	logger logger.Interface,
) *PlanIndexingUseCase {
	return &PlanIndexingUseCase{planner: planner, threads: threads, cfg: cfg, logger: logger}
}

// Execute produces a dry-run plan: what would be submitted and what it would
// cost. Nothing is enqueued and no credits move. When ItemIDs is empty, the
// candidate set is resolved from the forum filter.
func (uc *PlanIndexingUseCase) Execute(ctx context.Context, query PlanIndexingQuery) (*services.PlanResult, error) {
	itemIDs := query.ItemIDs
	if len(itemIDs) == 0 {
		ids, err := uc.threads.ListIDs(ctx, content.Filter{
			ForumIDs:   query.ForumIDs,
			MaxAgeDays: query.MaxAgeDays,
			Approved:   true,
		})
		if err != nil {
			return nil, err
		}
		if len(ids) > services.MaxPlanBatch {
			ids = ids[:services.MaxPlanBatch]
		}
		itemIDs = ids
	}
	if len(itemIDs) == 0 {
		return &services.PlanResult{Fingerprints: map[uint]string{}}, nil
	}

	return uc.planner.Plan(ctx, itemIDs, uc.chunkParams(query), uc.cfg)
}

func (uc *PlanIndexingUseCase) chunkParams(query PlanIndexingQuery) indexing.ChunkParams {
	params := indexing.ChunkParams{ChunkSize: query.ChunkSize, OverlapPercent: uc.cfg.OverlapPercent}
	if params.ChunkSize == 0 {
		params.ChunkSize = uc.cfg.ChunkSize
	}
	if query.OverlapPercent != nil {
		params.OverlapPercent = *query.OverlapPercent
	}
	return params
}
