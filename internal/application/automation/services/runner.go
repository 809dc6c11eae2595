package services

import (
	"context"
	"fmt"
	"time"

	tenantservices "threadmind/internal/application/tenant/services"
	"threadmind/internal/domain/automation"
	"threadmind/internal/domain/content"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/cache"
	"threadmind/internal/shared/biztime"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

// Generator is the remote content generation call.
type Generator interface {
	GenerateContent(ctx context.Context, apiKey string, req aicloud.GenerationRequest) (*aicloud.GenerationResult, error)
}

// CreditGate reads the balance and reconciles the cache after spending.
type CreditGate interface {
	Balance(ctx context.Context, maxStale time.Duration) (*cache.CreditSnapshot, error)
	AfterConsumption(ctx context.Context, credits int)
}

// CredentialResolver supplies decrypted call material.
type CredentialResolver interface {
	Resolve(ctx context.Context) (*tenantservices.Credentials, error)
}

// Notifier reaches the operator out of band when a task changes state on its
// own.
type Notifier interface {
	NotifyTaskAutoPaused(ctx context.Context, taskName, reason string) error
}

// Runner executes a single task run: credit gate, generation, duplicate
// guard, history. It mutates the task (pause on credit limit) but leaves
// persisting the run record to the caller.
type Runner struct {
	guard      *SimilarityGuard
	history    automation.HistoryRepository
	threads    content.Repository
	cloud      Generator
	creds      CredentialResolver
	gate       CreditGate
	notifier   Notifier
	maxStale   time.Duration
	maxRetries int
	logger     logger.Interface
}

func NewRunner(
	guard *SimilarityGuard,
	history automation.HistoryRepository,
	threads content.Repository,
	cloud Generator,
	creds CredentialResolver,
	gate CreditGate,
	notifier Notifier,
	maxStale time.Duration,
	maxRetries int,
	logger logger.Interface,
) *Runner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Runner{
		guard:      guard,
		history:    history,
		threads:    threads,
		cloud:      cloud,
		creds:      creds,
		gate:       gate,
		notifier:   notifier,
		maxStale:   maxStale,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Run executes the task once and returns the run outcome. Every attempt
// produces a result; errors are reserved for infrastructure failures where
// not even an outcome could be determined.
func (r *Runner) Run(ctx context.Context, task *automation.Task) (automation.RunResult, error) {
	started := biztime.NowUTC()
	cfg := task.Config()

	snap, err := r.gate.Balance(ctx, r.maxStale)
	if err != nil {
		return failure(started, "failed to check credit balance: "+err.Error()), nil
	}
	// The gate only stops a run when the task asked for it. A balance below
	// the threshold without auto_pause_on_limit proceeds; the remote call is
	// still the authority on whether credits actually suffice.
	if snap.Remaining < cfg.CreditStopThreshold && cfg.AutoPauseOnLimit {
		reason := fmt.Sprintf("credit balance %d below stop threshold %d", snap.Remaining, cfg.CreditStopThreshold)
		r.autoPause(ctx, task, reason)
		return failure(started, reason), nil
	}

	creds, err := r.creds.Resolve(ctx)
	if err != nil {
		return failure(started, err.Error()), nil
	}

	generationContext, err := r.threads.RecentTitles(ctx, cfg.Scope.ForumIDs, 20)
	if err != nil {
		r.logger.Warnw("failed to load generation context", "task_id", task.TaskID(), "error", err)
	}
	req := aicloud.GenerationRequest{
		TaskType: string(task.Type()),
		ForumIDs: cfg.Scope.ForumIDs,
		Style:    cfg.Style,
		Tone:     cfg.Tone,
		Quality:  string(cfg.Quality),
		Context:  generationContext,
	}

	creditsSpent := 0
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		generated, gerr := r.cloud.GenerateContent(ctx, creds.APIKey, req)
		if gerr != nil {
			if apperrors.IsInsufficientCreditsError(gerr) && cfg.AutoPauseOnLimit {
				r.autoPause(ctx, task, "credits exhausted during generation")
			}
			r.settleSpend(ctx, creditsSpent)
			return failure(started, gerr.Error(), creditsSpent), nil
		}
		creditsSpent += generated.CreditsConsumed

		match, cerr := r.guard.Check(ctx, cfg, generated.Title, generated.Body)
		if cerr != nil {
			r.settleSpend(ctx, creditsSpent)
			return failure(started, "duplicate check failed: "+cerr.Error(), creditsSpent), nil
		}
		if match != nil {
			r.logger.Infow("generated content rejected as duplicate",
				"task_id", task.TaskID(), "attempt", attempt, "score", match.Score)
			continue
		}

		forumID := uint(0)
		if len(cfg.Scope.ForumIDs) > 0 {
			forumID = cfg.Scope.ForumIDs[0]
		}
		item := &automation.GeneratedItem{
			TaskID:    task.TaskID(),
			TaskType:  task.Type(),
			ForumID:   forumID,
			Title:     generated.Title,
			Body:      generated.Body,
			CreatedAt: biztime.NowUTC(),
		}
		if serr := r.history.Save(ctx, item); serr != nil {
			// The content exists and was paid for; losing the history record
			// only weakens future duplicate checks.
			r.logger.Errorw("failed to record generated content", "task_id", task.TaskID(), "error", serr)
		}
		r.settleSpend(ctx, creditsSpent)

		return automation.RunResult{
			Succeeded:    true,
			ItemsCreated: 1,
			CreditsUsed:  creditsSpent,
			StartedAt:    started,
		}, nil
	}

	r.settleSpend(ctx, creditsSpent)
	return failure(started,
		fmt.Sprintf("all %d generation attempts were too similar to recent content", r.maxRetries),
		creditsSpent), nil
}

func (r *Runner) settleSpend(ctx context.Context, credits int) {
	if credits > 0 {
		r.gate.AfterConsumption(ctx, credits)
	}
}

func (r *Runner) autoPause(ctx context.Context, task *automation.Task, reason string) {
	task.Pause(reason)
	r.logger.Warnw("task auto-paused", "task_id", task.TaskID(), "reason", reason)
	if err := r.notifier.NotifyTaskAutoPaused(ctx, task.Name(), reason); err != nil {
		r.logger.Warnw("failed to notify operator of auto-pause", "task_id", task.TaskID(), "error", err)
	}
}

func failure(started time.Time, reason string, credits ...int) automation.RunResult {
	result := automation.RunResult{StartedAt: started, Reason: reason}
	if len(credits) > 0 {
		result.CreditsUsed = credits[0]
	}
	return result
}
