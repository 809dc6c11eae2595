package services

import (
	"context"
	"fmt"

	"threadmind/internal/domain/content"
	"threadmind/internal/domain/indexing"
	sharedConfig "threadmind/internal/shared/config"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

// MaxPlanBatch caps how many items one planning call may examine, bounding
// query cost. Callers with more items re-invoke in pages.
const MaxPlanBatch = 500

// PlanResult is the outcome of a planning pass. Unchanged items are reported
// but never resubmitted: reindexing an unchanged item costs zero credits.
type PlanResult struct {
	ToSubmit         []uint
	New              int
	Changed          int
	Unchanged        int
	SkippedEmpty     []uint
	EstimatedCredits int
	// Fingerprints carries the prepared-text hash for each item in ToSubmit
	// so the drain routine does not recompute it.
	Fingerprints map[uint]string
	// ItemCredits is the per-item estimate, keyed like Fingerprints.
	ItemCredits map[uint]int
}

// Planner is the deduplicating indexer: it decides which items actually need
// submission and what that will cost.
type Planner struct {
	threads content.Repository
	items   indexing.ItemRepository
	texts   *TextPreparer
	logger  logger.Interface
}

func NewPlanner(threads content.Repository, items indexing.ItemRepository, texts *TextPreparer, log logger.Interface) *Planner {
	return &Planner{threads: threads, items: items, texts: texts, logger: log}
}

// Plan classifies each item as new, changed or unchanged against its last
// indexed fingerprint and estimates credits for the submittable subset.
func (p *Planner) Plan(ctx context.Context, itemIDs []uint, params indexing.ChunkParams, cfg sharedConfig.IndexingConfig) (*PlanResult, error) {
	if err := params.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if len(itemIDs) == 0 {
		return nil, apperrors.NewValidationError("no items to plan")
	}
	if len(itemIDs) > MaxPlanBatch {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("planning is capped at %d items per call, got %d", MaxPlanBatch, len(itemIDs)))
	}

	threads, err := p.threads.GetByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	records, err := p.items.GetByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	result := &PlanResult{
		Fingerprints: make(map[uint]string),
		ItemCredits:  make(map[uint]int),
	}
	for _, id := range itemIDs {
		thread, ok := threads[id]
		if !ok {
			// The thread was deleted on the forum side; nothing to embed.
			result.SkippedEmpty = append(result.SkippedEmpty, id)
			continue
		}

		prepared, err := p.texts.Prepare(thread.Title + "\n" + thread.Body)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to prepare item text").WithCause(err)
		}
		chunks := p.texts.Chunk(prepared, params.ChunkSize, params.OverlapPercent)
		if len(chunks) == 0 {
			// Cannot be embedded; reported separately, counted nowhere else.
			result.SkippedEmpty = append(result.SkippedEmpty, id)
			continue
		}

		fingerprint := p.texts.Fingerprint(prepared)
		record, indexed := records[id]
		switch {
		case !indexed || !record.CloudIndexed():
			result.New++
		case record.ContentHash() != fingerprint:
			result.Changed++
		default:
			result.Unchanged++
			continue
		}

		cost := 1
		if thread.HasImage && cfg.IndexImages {
			// Image indexing roughly doubles the per-item cost.
			cost++
		}
		result.ToSubmit = append(result.ToSubmit, id)
		result.Fingerprints[id] = fingerprint
		result.ItemCredits[id] = cost
		result.EstimatedCredits += cost
	}

	p.logger.Debugw("indexing plan computed",
		"requested", len(itemIDs),
		"to_submit", len(result.ToSubmit),
		"new", result.New,
		"changed", result.Changed,
		"unchanged", result.Unchanged,
		"skipped_empty", len(result.SkippedEmpty),
		"estimated_credits", result.EstimatedCredits)

	return result, nil
}
