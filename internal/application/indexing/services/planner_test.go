package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadmind/internal/domain/content"
	"threadmind/internal/domain/indexing"
	sharedConfig "threadmind/internal/shared/config"
	"threadmind/internal/shared/logger"
)

type fakeContentRepo struct {
	threads map[uint]*content.Thread
}

func (f *fakeContentRepo) GetByIDs(ctx context.Context, ids []uint) (map[uint]*content.Thread, error) {
	out := make(map[uint]*content.Thread)
	for _, id := range ids {
		if t, ok := f.threads[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeContentRepo) ListIDs(ctx context.Context, filter content.Filter) ([]uint, error) {
	var ids []uint
	for id := range f.threads {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeContentRepo) RecentTitles(ctx context.Context, forumIDs []uint, limit int) ([]string, error) {
	return nil, nil
}

type fakeItemRepo struct {
	items map[uint]*indexing.Item
}

func (f *fakeItemRepo) GetByIDs(ctx context.Context, ids []uint) (map[uint]*indexing.Item, error) {
	out := make(map[uint]*indexing.Item)
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (f *fakeItemRepo) Upsert(ctx context.Context, item *indexing.Item) error {
	f.items[item.ItemID()] = item
	return nil
}

func (f *fakeItemRepo) ResetAllFlags(ctx context.Context) (int64, error) {
	var n int64
	for _, it := range f.items {
		it.ResetFlags()
		n++
	}
	return n, nil
}

func (f *fakeItemRepo) CountIndexed(ctx context.Context) (int64, error) {
	var n int64
	for _, it := range f.items {
		if it.CloudIndexed() {
			n++
		}
	}
	return n, nil
}

func thread(id uint, body string) *content.Thread {
	return &content.Thread{ID: id, ForumID: 1, Title: "Thread", Body: body, Approved: true}
}

func indexedItem(t *testing.T, preparer *TextPreparer, id uint, body string) *indexing.Item {
	t.Helper()
	prepared, err := preparer.Prepare("Thread\n" + body)
	require.NoError(t, err)
	item, err := indexing.NewItem(id, false)
	require.NoError(t, err)
	item.MarkIndexed(preparer.Fingerprint(prepared), time.Now().UTC())
	return item
}

func defaultIndexingConfig() sharedConfig.IndexingConfig {
	return sharedConfig.IndexingConfig{ChunkSize: 512, OverlapPercent: 20}
}

func params() indexing.ChunkParams {
	return indexing.ChunkParams{ChunkSize: 512, OverlapPercent: 20}
}

func TestPlanner_ClassifiesNewChangedUnchanged(t *testing.T) {
	preparer := NewTextPreparer()
	threads := &fakeContentRepo{threads: map[uint]*content.Thread{
		101: thread(101, "brand new content"),
		102: thread(102, "stable content"),
		103: thread(103, "content that was edited"),
	}}
	items := &fakeItemRepo{items: map[uint]*indexing.Item{
		102: indexedItem(t, preparer, 102, "stable content"),
		103: indexedItem(t, preparer, 103, "content before the edit"),
	}}
	planner := NewPlanner(threads, items, preparer, logger.NewLogger())

	plan, err := planner.Plan(context.Background(), []uint{101, 102, 103}, params(), defaultIndexingConfig())
	require.NoError(t, err)

	assert.Equal(t, []uint{101, 103}, plan.ToSubmit)
	assert.Equal(t, 1, plan.New)
	assert.Equal(t, 1, plan.Changed)
	assert.Equal(t, 1, plan.Unchanged)
	assert.Equal(t, 2, plan.EstimatedCredits)
}

// Running the same plan twice must yield nothing to submit the second time
// around once everything is indexed: unchanged content costs zero credits.
func TestPlanner_IdempotentReindexCostsNothing(t *testing.T) {
	preparer := NewTextPreparer()
	threads := &fakeContentRepo{threads: map[uint]*content.Thread{
		1: thread(1, "some content"),
		2: thread(2, "other content"),
	}}
	items := &fakeItemRepo{items: map[uint]*indexing.Item{
		1: indexedItem(t, preparer, 1, "some content"),
		2: indexedItem(t, preparer, 2, "other content"),
	}}
	planner := NewPlanner(threads, items, preparer, logger.NewLogger())

	for i := 0; i < 2; i++ {
		plan, err := planner.Plan(context.Background(), []uint{1, 2}, params(), defaultIndexingConfig())
		require.NoError(t, err)
		assert.Empty(t, plan.ToSubmit)
		assert.Equal(t, 0, plan.EstimatedCredits)
		assert.Equal(t, 2, plan.Unchanged)
	}
}

func TestPlanner_EmptyContentReportedSeparately(t *testing.T) {
	preparer := NewTextPreparer()
	threads := &fakeContentRepo{threads: map[uint]*content.Thread{
		1: {ID: 1, Title: "", Body: ""},
		2: thread(2, "real content"),
	}}
	items := &fakeItemRepo{items: map[uint]*indexing.Item{}}
	planner := NewPlanner(threads, items, preparer, logger.NewLogger())

	plan, err := planner.Plan(context.Background(), []uint{1, 2, 3}, params(), defaultIndexingConfig())
	require.NoError(t, err)

	// 1 has no embeddable text, 3 does not exist on the forum anymore.
	assert.ElementsMatch(t, []uint{1, 3}, plan.SkippedEmpty)
	assert.Equal(t, []uint{2}, plan.ToSubmit)
	assert.Equal(t, 1, plan.New)
	assert.Equal(t, 0, plan.Changed)
	assert.Equal(t, 0, plan.Unchanged)
}

func TestPlanner_ImageDoublesCostOnlyWhenEnabled(t *testing.T) {
	preparer := NewTextPreparer()
	withImage := thread(1, "content with a diagram")
	withImage.HasImage = true
	threads := &fakeContentRepo{threads: map[uint]*content.Thread{1: withImage}}
	items := &fakeItemRepo{items: map[uint]*indexing.Item{}}
	planner := NewPlanner(threads, items, preparer, logger.NewLogger())

	cfg := defaultIndexingConfig()
	plan, err := planner.Plan(context.Background(), []uint{1}, params(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.EstimatedCredits)

	cfg.IndexImages = true
	plan, err = planner.Plan(context.Background(), []uint{1}, params(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.EstimatedCredits)
}

func TestPlanner_RejectsOversizedBatch(t *testing.T) {
	planner := NewPlanner(&fakeContentRepo{}, &fakeItemRepo{}, NewTextPreparer(), logger.NewLogger())

	ids := make([]uint, MaxPlanBatch+1)
	for i := range ids {
		ids[i] = uint(i + 1)
	}
	_, err := planner.Plan(context.Background(), ids, params(), defaultIndexingConfig())
	assert.Error(t, err)
}

func TestPlanner_RejectsInvalidParams(t *testing.T) {
	planner := NewPlanner(&fakeContentRepo{}, &fakeItemRepo{}, NewTextPreparer(), logger.NewLogger())

	_, err := planner.Plan(context.Background(), []uint{1},
		indexing.ChunkParams{ChunkSize: 10, OverlapPercent: 0}, defaultIndexingConfig())
	assert.Error(t, err)
}
