package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadmind/internal/application/indexing/services"
	tenantservices "threadmind/internal/application/tenant/services"
	"threadmind/internal/domain/content"
	"threadmind/internal/domain/indexing"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/cache"
	sharedConfig "threadmind/internal/shared/config"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type fakeJobRepo struct {
	jobs []*indexing.Job
}

func (f *fakeJobRepo) Create(ctx context.Context, job *indexing.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobRepo) Update(ctx context.Context, job *indexing.Job) error { return nil }

func (f *fakeJobRepo) GetByJobID(ctx context.Context, jobID string) (*indexing.Job, error) {
	for _, j := range f.jobs {
		if j.JobID() == jobID {
			return j, nil
		}
	}
	return nil, apperrors.NewNotFoundError("job not found")
}

func (f *fakeJobRepo) NextActive(ctx context.Context) (*indexing.Job, error) {
	for _, j := range f.jobs {
		if !j.Status().IsTerminal() {
			return j, nil
		}
	}
	return nil, nil
}

func (f *fakeJobRepo) NonTerminalItemIDs(ctx context.Context) (map[uint]bool, error) {
	held := make(map[uint]bool)
	for _, j := range f.jobs {
		if j.Status().IsTerminal() {
			continue
		}
		for _, id := range j.ItemIDs() {
			held[id] = true
		}
	}
	return held, nil
}

func (f *fakeJobRepo) CancelAll(ctx context.Context) (int, int, error) {
	var jobs, items int
	for _, j := range f.jobs {
		if j.Status().IsTerminal() {
			continue
		}
		pending, _, _ := j.Counts()
		if err := j.Cancel(); err != nil {
			return 0, 0, err
		}
		jobs++
		items += pending
	}
	return jobs, items, nil
}

func (f *fakeJobRepo) HasActive(ctx context.Context) (bool, error) {
	for _, j := range f.jobs {
		if !j.Status().IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

type fakeItemStore struct {
	items map[uint]*indexing.Item
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: make(map[uint]*indexing.Item)}
}

func (f *fakeItemStore) GetByIDs(ctx context.Context, ids []uint) (map[uint]*indexing.Item, error) {
	out := make(map[uint]*indexing.Item)
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (f *fakeItemStore) Upsert(ctx context.Context, item *indexing.Item) error {
	f.items[item.ItemID()] = item
	return nil
}

func (f *fakeItemStore) ResetAllFlags(ctx context.Context) (int64, error) {
	for _, it := range f.items {
		it.ResetFlags()
	}
	return int64(len(f.items)), nil
}

func (f *fakeItemStore) CountIndexed(ctx context.Context) (int64, error) {
	var n int64
	for _, it := range f.items {
		if it.CloudIndexed() {
			n++
		}
	}
	return n, nil
}

type fakeThreads struct {
	threads map[uint]*content.Thread
}

func (f *fakeThreads) GetByIDs(ctx context.Context, ids []uint) (map[uint]*content.Thread, error) {
	out := make(map[uint]*content.Thread)
	for _, id := range ids {
		if t, ok := f.threads[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeThreads) ListIDs(ctx context.Context, filter content.Filter) ([]uint, error) {
	return nil, nil
}

func (f *fakeThreads) RecentTitles(ctx context.Context, forumIDs []uint, limit int) ([]string, error) {
	return nil, nil
}

// fakeIndexCloud charges one credit per submission unless the item is
// scripted to fail.
type fakeIndexCloud struct {
	failWith  map[uint]error
	submitted []uint
}

func (f *fakeIndexCloud) SubmitItem(ctx context.Context, apiKey string, payload aicloud.SubmitPayload) (*aicloud.SubmitResult, error) {
	if err, ok := f.failWith[payload.ItemID]; ok {
		return nil, err
	}
	f.submitted = append(f.submitted, payload.ItemID)
	return &aicloud.SubmitResult{CreditsConsumed: 1, ChunksIndexed: len(payload.Chunks)}, nil
}

func (f *fakeIndexCloud) ClearAll(ctx context.Context, apiKey string) error { return nil }

func (f *fakeIndexCloud) IndexedCountsByForum(ctx context.Context, apiKey string) ([]aicloud.ForumIndexCount, error) {
	return nil, nil
}

type fakeCredentials struct{}

func (fakeCredentials) Resolve(ctx context.Context) (*tenantservices.Credentials, error) {
	return &tenantservices.Credentials{APIKey: "key", TenantID: "tn_1"}, nil
}

type fakeGate struct {
	remaining int
	consumed  int
}

func (f *fakeGate) CanAfford(ctx context.Context, credits int, maxStale time.Duration) (bool, int, error) {
	return f.remaining >= credits, f.remaining, nil
}

func (f *fakeGate) Balance(ctx context.Context, maxStale time.Duration) (*cache.CreditSnapshot, error) {
	return &cache.CreditSnapshot{Remaining: f.remaining, FetchedAt: time.Now().UTC()}, nil
}

func (f *fakeGate) AfterConsumption(ctx context.Context, credits int) {
	f.consumed += credits
	f.remaining -= credits
}

type fakeLock struct {
	held bool
}

func (f *fakeLock) Acquire(ctx context.Context, scope string) (func(), bool, error) {
	if f.held {
		return nil, false, nil
	}
	f.held = true
	return func() { f.held = false }, true, nil
}

func drainConfig() sharedConfig.IndexingConfig {
	return sharedConfig.IndexingConfig{ChunkSize: 512, OverlapPercent: 20, BatchSize: 25}
}

func queuedJob(t *testing.T, itemIDs []uint, reserved int) *indexing.Job {
	t.Helper()
	job, err := indexing.NewJob(itemIDs, indexing.ChunkParams{ChunkSize: 512, OverlapPercent: 20}, reserved)
	require.NoError(t, err)
	return job
}

func threadsFor(ids ...uint) *fakeThreads {
	out := &fakeThreads{threads: make(map[uint]*content.Thread)}
	for _, id := range ids {
		out.threads[id] = &content.Thread{ID: id, ForumID: 1, Title: "Thread", Body: "body of thread", Approved: true}
	}
	return out
}

func newDrainUseCase(jobs *fakeJobRepo, items *fakeItemStore, threads *fakeThreads, cloud *fakeIndexCloud, gate *fakeGate, lock *fakeLock) *DrainIndexingUseCase {
	return NewDrainIndexingUseCase(
		jobs, items, threads, services.NewTextPreparer(), cloud,
		fakeCredentials{}, gate, lock, drainConfig(), logger.NewLogger(),
	)
}

func TestDrain_CompletesSmallJob(t *testing.T) {
	jobs := &fakeJobRepo{jobs: []*indexing.Job{queuedJob(t, []uint{1, 2, 3}, 3)}}
	items := newFakeItemStore()
	gate := &fakeGate{remaining: 10}
	cloud := &fakeIndexCloud{}

	uc := newDrainUseCase(jobs, items, threadsFor(1, 2, 3), cloud, gate, &fakeLock{})
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)

	assert.Equal(t, indexing.JobDone, result.JobStatus)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, result.CreditsConsumed)
	assert.False(t, result.HasMore)
	assert.Equal(t, 3, gate.consumed, "cached balance must reflect the spend")

	indexed, _ := items.CountIndexed(context.Background())
	assert.EqualValues(t, 3, indexed)
}

func TestDrain_BatchIsBounded(t *testing.T) {
	ids := []uint{1, 2, 3, 4, 5}
	jobs := &fakeJobRepo{jobs: []*indexing.Job{queuedJob(t, ids, 5)}}

	uc := newDrainUseCase(jobs, newFakeItemStore(), threadsFor(ids...), &fakeIndexCloud{}, &fakeGate{remaining: 10}, &fakeLock{})
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{BatchSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, indexing.JobProcessing, result.JobStatus)
	assert.True(t, result.HasMore)

	// The next pass resumes where this one stopped.
	result, err = uc.Execute(context.Background(), DrainIndexingCommand{BatchSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, indexing.JobDone, result.JobStatus)
	assert.False(t, result.HasMore)
}

func TestDrain_PartialFailureDoesNotFailJob(t *testing.T) {
	jobs := &fakeJobRepo{jobs: []*indexing.Job{queuedJob(t, []uint{1, 2}, 2)}}
	cloud := &fakeIndexCloud{failWith: map[uint]error{
		2: apperrors.NewTransportError("upstream timeout"),
	}}

	uc := newDrainUseCase(jobs, newFakeItemStore(), threadsFor(1, 2), cloud, &fakeGate{remaining: 10}, &fakeLock{})
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)

	assert.Equal(t, indexing.JobDone, result.JobStatus, "one success keeps the job done, not failed")
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
}

func TestDrain_AllItemsFailedFailsJob(t *testing.T) {
	jobs := &fakeJobRepo{jobs: []*indexing.Job{queuedJob(t, []uint{1, 2}, 2)}}
	cloud := &fakeIndexCloud{failWith: map[uint]error{
		1: apperrors.NewTransportError("upstream timeout"),
		2: apperrors.NewTransportError("upstream timeout"),
	}}

	uc := newDrainUseCase(jobs, newFakeItemStore(), threadsFor(1, 2), cloud, &fakeGate{remaining: 10}, &fakeLock{})
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)

	assert.Equal(t, indexing.JobFailed, result.JobStatus)
	assert.Equal(t, 0, result.CreditsConsumed)
}

func TestDrain_CreditExhaustionStopsPass(t *testing.T) {
	jobs := &fakeJobRepo{jobs: []*indexing.Job{queuedJob(t, []uint{1, 2, 3}, 3)}}
	cloud := &fakeIndexCloud{failWith: map[uint]error{
		2: apperrors.NewInsufficientCreditsError("credits exhausted"),
	}}

	uc := newDrainUseCase(jobs, newFakeItemStore(), threadsFor(1, 2, 3), cloud, &fakeGate{remaining: 10}, &fakeLock{})
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed, "item 3 must not be attempted this pass")
	assert.Equal(t, indexing.JobProcessing, result.JobStatus)
	assert.True(t, result.HasMore)
	assert.NotContains(t, cloud.submitted, uint(3))
}

func TestDrain_MissingContentMarksItemFailed(t *testing.T) {
	jobs := &fakeJobRepo{jobs: []*indexing.Job{queuedJob(t, []uint{1, 99}, 2)}}

	uc := newDrainUseCase(jobs, newFakeItemStore(), threadsFor(1), &fakeIndexCloud{}, &fakeGate{remaining: 10}, &fakeLock{})
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)

	assert.Equal(t, indexing.JobDone, result.JobStatus)
	assert.Equal(t, 1, result.Failed)
}

func TestDrain_SkipsWhenLockHeld(t *testing.T) {
	jobs := &fakeJobRepo{jobs: []*indexing.Job{queuedJob(t, []uint{1}, 1)}}
	lock := &fakeLock{held: true}

	uc := newDrainUseCase(jobs, newFakeItemStore(), threadsFor(1), &fakeIndexCloud{}, &fakeGate{remaining: 10}, lock)
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, result.Processed)
}

func TestDrain_EmptyQueue(t *testing.T) {
	uc := newDrainUseCase(&fakeJobRepo{}, newFakeItemStore(), threadsFor(), &fakeIndexCloud{}, &fakeGate{remaining: 10}, &fakeLock{})

	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)
	assert.Empty(t, result.JobID)
	assert.False(t, result.HasMore)
}

func TestDrain_MultipleJobsInOnePass(t *testing.T) {
	jobs := &fakeJobRepo{jobs: []*indexing.Job{
		queuedJob(t, []uint{1, 2}, 2),
		queuedJob(t, []uint{3}, 1),
	}}
	cloud := &fakeIndexCloud{}

	uc := newDrainUseCase(jobs, newFakeItemStore(), threadsFor(1, 2, 3), cloud, &fakeGate{remaining: 10}, &fakeLock{})
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed, "the budget spans queued jobs, not just the head one")
	assert.Equal(t, []uint{1, 2, 3}, cloud.submitted)
	assert.False(t, result.HasMore)
	assert.Equal(t, indexing.JobDone, jobs.jobs[0].Status())
	assert.Equal(t, indexing.JobDone, jobs.jobs[1].Status())
}

func TestDrain_FinishedHeadJobDoesNotStallQueue(t *testing.T) {
	// A pass interrupted after its last item leaves a fully-processed job
	// still marked processing at the head of the queue.
	head := queuedJob(t, []uint{1}, 1)
	require.NoError(t, head.StartProcessing())
	require.NoError(t, head.MarkItemDone(1, 1))

	jobs := &fakeJobRepo{jobs: []*indexing.Job{head, queuedJob(t, []uint{2}, 1)}}
	cloud := &fakeIndexCloud{}

	uc := newDrainUseCase(jobs, newFakeItemStore(), threadsFor(2), cloud, &fakeGate{remaining: 10}, &fakeLock{})
	result, err := uc.Execute(context.Background(), DrainIndexingCommand{})
	require.NoError(t, err)

	assert.Equal(t, indexing.JobDone, head.Status(), "the stale head job is closed out")
	assert.Equal(t, []uint{2}, cloud.submitted, "the next queued job drains in the same pass")
	assert.Equal(t, 1, result.Processed)
	assert.False(t, result.HasMore)
}

func TestEnqueue_GuardsItemsAlreadyQueued(t *testing.T) {
	preparer := services.NewTextPreparer()
	threads := threadsFor(1, 2)
	items := newFakeItemStore()
	jobs := &fakeJobRepo{jobs: []*indexing.Job{queuedJob(t, []uint{1}, 1)}}
	planner := services.NewPlanner(threads, items, preparer, logger.NewLogger())

	uc := NewEnqueueIndexingUseCase(planner, jobs, &fakeGate{remaining: 10}, &fakeLock{}, drainConfig(), logger.NewLogger())
	result, err := uc.Execute(context.Background(), EnqueueIndexingCommand{ItemIDs: []uint{1, 2}})
	require.NoError(t, err)

	assert.Equal(t, []uint{1}, result.AlreadyQueued)
	assert.Equal(t, 1, result.Queued)
	assert.Equal(t, 1, result.CreditsReserved)
}

func TestEnqueue_ExplicitZeroOverlapIsKept(t *testing.T) {
	preparer := services.NewTextPreparer()
	threads := threadsFor(1)
	jobs := &fakeJobRepo{}
	planner := services.NewPlanner(threads, newFakeItemStore(), preparer, logger.NewLogger())

	uc := NewEnqueueIndexingUseCase(planner, jobs, &fakeGate{remaining: 10}, &fakeLock{}, drainConfig(), logger.NewLogger())
	zero := 0
	_, err := uc.Execute(context.Background(), EnqueueIndexingCommand{ItemIDs: []uint{1}, OverlapPercent: &zero})
	require.NoError(t, err)

	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, 0, jobs.jobs[0].Params().OverlapPercent, "an explicit 0 must not fall back to the configured default")

	// Omitting the field still picks up the default.
	jobs2 := &fakeJobRepo{}
	uc = NewEnqueueIndexingUseCase(planner, jobs2, &fakeGate{remaining: 10}, &fakeLock{}, drainConfig(), logger.NewLogger())
	_, err = uc.Execute(context.Background(), EnqueueIndexingCommand{ItemIDs: []uint{1}})
	require.NoError(t, err)
	require.Len(t, jobs2.jobs, 1)
	assert.Equal(t, 20, jobs2.jobs[0].Params().OverlapPercent)
}

func TestEnqueue_InsufficientCredits(t *testing.T) {
	preparer := services.NewTextPreparer()
	threads := threadsFor(1, 2)
	planner := services.NewPlanner(threads, newFakeItemStore(), preparer, logger.NewLogger())

	uc := NewEnqueueIndexingUseCase(planner, &fakeJobRepo{}, &fakeGate{remaining: 1}, &fakeLock{}, drainConfig(), logger.NewLogger())
	_, err := uc.Execute(context.Background(), EnqueueIndexingCommand{ItemIDs: []uint{1, 2}})
	assert.True(t, apperrors.IsInsufficientCreditsError(err))
}

func TestCancelAll_ClearsPendingWork(t *testing.T) {
	job := queuedJob(t, []uint{1, 2, 3}, 3)
	jobs := &fakeJobRepo{jobs: []*indexing.Job{job}}

	uc := NewCancelIndexingUseCase(jobs, &fakeLock{}, logger.NewLogger())
	result, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.JobsCleared)
	assert.Equal(t, 3, result.ItemsCleared)
	assert.Equal(t, indexing.JobCancelled, job.Status())
}
