package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tenantservices "threadmind/internal/application/tenant/services"
	"threadmind/internal/domain/automation"
	"threadmind/internal/domain/content"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/cache"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type fakeGenerator struct {
	results []*aicloud.GenerationResult
	err     error
	calls   int
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, apiKey string, req aicloud.GenerationRequest) (*aicloud.GenerationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return result, nil
}

type fakeRunnerGate struct {
	remaining int
	consumed  int
}

func (f *fakeRunnerGate) Balance(ctx context.Context, maxStale time.Duration) (*cache.CreditSnapshot, error) {
	return &cache.CreditSnapshot{Remaining: f.remaining, FetchedAt: time.Now().UTC()}, nil
}

func (f *fakeRunnerGate) AfterConsumption(ctx context.Context, credits int) {
	f.consumed += credits
}

type fakeRunnerCreds struct{}

func (fakeRunnerCreds) Resolve(ctx context.Context) (*tenantservices.Credentials, error) {
	return &tenantservices.Credentials{APIKey: "key", TenantID: "tn_1"}, nil
}

type fakeNotifier struct {
	pauses []string
}

func (f *fakeNotifier) NotifyTaskAutoPaused(ctx context.Context, taskName, reason string) error {
	f.pauses = append(f.pauses, reason)
	return nil
}

type noThreads struct{}

func (noThreads) GetByIDs(ctx context.Context, ids []uint) (map[uint]*content.Thread, error) {
	return map[uint]*content.Thread{}, nil
}
func (noThreads) ListIDs(ctx context.Context, filter content.Filter) ([]uint, error) {
	return nil, nil
}
func (noThreads) RecentTitles(ctx context.Context, forumIDs []uint, limit int) ([]string, error) {
	return []string{"Existing thread"}, nil
}

func activeTask(t *testing.T, cfg automation.Config) *automation.Task {
	t.Helper()
	task, err := automation.NewTask("daily topics", automation.TaskTopicGenerator, cfg,
		automation.FreqDaily, allWeekdays(), time.Now().UTC())
	require.NoError(t, err)
	return task
}

func newRunner(gen Generator, gate CreditGate, history *fakeHistory, notifier *fakeNotifier, retries int) *Runner {
	guard := NewSimilarityGuard(history, logger.NewLogger())
	return NewRunner(guard, history, noThreads{}, gen, fakeRunnerCreds{}, gate, notifier,
		5*time.Minute, retries, logger.NewLogger())
}

func TestRunner_SuccessfulRun(t *testing.T) {
	history := &fakeHistory{}
	gate := &fakeRunnerGate{remaining: 100}
	gen := &fakeGenerator{results: []*aicloud.GenerationResult{
		{Title: "Fresh topic", Body: "Entirely new discussion starter.", CreditsConsumed: 2},
	}}
	runner := newRunner(gen, gate, history, &fakeNotifier{}, 3)

	task := activeTask(t, automation.Config{DuplicatePrevention: true, SimilarityThreshold: 85})
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	assert.Equal(t, 1, result.ItemsCreated)
	assert.Equal(t, 2, result.CreditsUsed)
	assert.Equal(t, 2, gate.consumed)
	require.Len(t, history.items, 1)
	assert.Equal(t, task.TaskID(), history.items[0].TaskID)
}

func TestRunner_CreditThresholdBlocksAndAutoPauses(t *testing.T) {
	gate := &fakeRunnerGate{remaining: 5}
	gen := &fakeGenerator{}
	notifier := &fakeNotifier{}
	runner := newRunner(gen, gate, &fakeHistory{}, notifier, 3)

	task := activeTask(t, automation.Config{CreditStopThreshold: 10, AutoPauseOnLimit: true})
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.False(t, result.Succeeded)
	assert.Contains(t, result.Reason, "stop threshold")
	assert.Equal(t, automation.TaskPaused, task.Status())
	assert.Len(t, notifier.pauses, 1, "operator must be notified")
	assert.Zero(t, gen.calls, "no generation call may happen below the threshold")
}

func TestRunner_BalanceAtThresholdRuns(t *testing.T) {
	gate := &fakeRunnerGate{remaining: 10}
	gen := &fakeGenerator{results: []*aicloud.GenerationResult{
		{Title: "Fresh topic", Body: "Entirely new discussion starter.", CreditsConsumed: 2},
	}}
	notifier := &fakeNotifier{}
	runner := newRunner(gen, gate, &fakeHistory{}, notifier, 3)

	// The gate only blocks strictly below the threshold.
	task := activeTask(t, automation.Config{CreditStopThreshold: 10, AutoPauseOnLimit: true})
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	assert.Equal(t, 1, gen.calls, "balance equal to the threshold must not block the run")
	assert.Equal(t, automation.TaskActive, task.Status())
	assert.Empty(t, notifier.pauses)
}

func TestRunner_BelowThresholdWithoutAutoPauseRuns(t *testing.T) {
	gate := &fakeRunnerGate{remaining: 5}
	gen := &fakeGenerator{results: []*aicloud.GenerationResult{
		{Title: "Fresh topic", Body: "Entirely new discussion starter.", CreditsConsumed: 2},
	}}
	runner := newRunner(gen, gate, &fakeHistory{}, &fakeNotifier{}, 3)

	task := activeTask(t, automation.Config{CreditStopThreshold: 10})
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	assert.Equal(t, 1, gen.calls, "without auto_pause_on_limit the run proceeds")
	assert.Equal(t, automation.TaskActive, task.Status())
}

func TestRunner_DuplicateRetriesThenSucceeds(t *testing.T) {
	history := &fakeHistory{items: []*automation.GeneratedItem{
		historyItem(1, "Fresh topic", "Entirely new discussion starter.", time.Hour),
	}}
	gate := &fakeRunnerGate{remaining: 100}
	gen := &fakeGenerator{results: []*aicloud.GenerationResult{
		{Title: "Fresh topic", Body: "Entirely new discussion starter.", CreditsConsumed: 2},
		{Title: "Different topic", Body: "Nothing like the history at all, honest.", CreditsConsumed: 2},
	}}
	runner := newRunner(gen, gate, history, &fakeNotifier{}, 3)

	task := activeTask(t, automation.Config{DuplicatePrevention: true, SimilarityThreshold: 85})
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	assert.Equal(t, 2, gen.calls, "first duplicate forces one retry")
	assert.Equal(t, 4, result.CreditsUsed, "rejected attempts still cost credits")
}

func TestRunner_DuplicateRetriesExhausted(t *testing.T) {
	history := &fakeHistory{items: []*automation.GeneratedItem{
		historyItem(1, "Fresh topic", "Entirely new discussion starter.", time.Hour),
	}}
	gate := &fakeRunnerGate{remaining: 100}
	gen := &fakeGenerator{results: []*aicloud.GenerationResult{
		{Title: "Fresh topic", Body: "Entirely new discussion starter.", CreditsConsumed: 2},
	}}
	runner := newRunner(gen, gate, history, &fakeNotifier{}, 2)

	task := activeTask(t, automation.Config{DuplicatePrevention: true, SimilarityThreshold: 85})
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.False(t, result.Succeeded)
	assert.Contains(t, result.Reason, "too similar")
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, 4, gate.consumed, "spent credits are reconciled even on failure")
	assert.Len(t, history.items, 1, "rejected content must not pollute history")
}

func TestRunner_RemoteCreditExhaustionAutoPauses(t *testing.T) {
	gate := &fakeRunnerGate{remaining: 100}
	gen := &fakeGenerator{err: apperrors.NewInsufficientCreditsError("credits exhausted")}
	notifier := &fakeNotifier{}
	runner := newRunner(gen, gate, &fakeHistory{}, notifier, 3)

	task := activeTask(t, automation.Config{AutoPauseOnLimit: true})
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.False(t, result.Succeeded)
	assert.Equal(t, automation.TaskPaused, task.Status())
	assert.Len(t, notifier.pauses, 1)
}

func TestRunner_TransportFailureRecordsReason(t *testing.T) {
	gen := &fakeGenerator{err: apperrors.NewTransportError("connection refused")}
	runner := newRunner(gen, &fakeRunnerGate{remaining: 100}, &fakeHistory{}, &fakeNotifier{}, 3)

	task := activeTask(t, automation.Config{})
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.False(t, result.Succeeded)
	assert.Contains(t, result.Reason, "connection refused")
	assert.Equal(t, automation.TaskActive, task.Status())
}
