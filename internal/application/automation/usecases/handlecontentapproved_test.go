package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadmind/internal/application/automation/services"
	tenantservices "threadmind/internal/application/tenant/services"
	"threadmind/internal/domain/automation"
	"threadmind/internal/domain/content"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/cache"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type fakeTasks struct {
	tasks []*automation.Task
}

func (f *fakeTasks) Create(ctx context.Context, task *automation.Task) error {
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeTasks) Update(ctx context.Context, task *automation.Task) error { return nil }

func (f *fakeTasks) Delete(ctx context.Context, taskID string) error { return nil }

func (f *fakeTasks) GetByTaskID(ctx context.Context, taskID string) (*automation.Task, error) {
	for _, t := range f.tasks {
		if t.TaskID() == taskID {
			return t, nil
		}
	}
	return nil, apperrors.NewNotFoundError("task not found")
}

func (f *fakeTasks) List(ctx context.Context) ([]*automation.Task, error) { return f.tasks, nil }

func (f *fakeTasks) ListActive(ctx context.Context) ([]*automation.Task, error) {
	var out []*automation.Task
	for _, t := range f.tasks {
		if t.Status() == automation.TaskActive {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeApprovedHistory struct {
	items []*automation.GeneratedItem
}

func (f *fakeApprovedHistory) Save(ctx context.Context, item *automation.GeneratedItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeApprovedHistory) ListRecent(ctx context.Context, since time.Time, forumIDs []uint) ([]*automation.GeneratedItem, error) {
	return nil, nil
}

type countingGenerator struct {
	taskTypes []string
}

func (g *countingGenerator) GenerateContent(ctx context.Context, apiKey string, req aicloud.GenerationRequest) (*aicloud.GenerationResult, error) {
	g.taskTypes = append(g.taskTypes, req.TaskType)
	return &aicloud.GenerationResult{Title: "Generated", Body: "Generated reply body.", CreditsConsumed: 1}, nil
}

type openGate struct{}

func (openGate) Balance(ctx context.Context, maxStale time.Duration) (*cache.CreditSnapshot, error) {
	return &cache.CreditSnapshot{Remaining: 100, FetchedAt: time.Now().UTC()}, nil
}

func (openGate) AfterConsumption(ctx context.Context, credits int) {}

type staticCreds struct{}

func (staticCreds) Resolve(ctx context.Context) (*tenantservices.Credentials, error) {
	return &tenantservices.Credentials{APIKey: "key", TenantID: "tn_1"}, nil
}

type silentNotifier struct{}

func (silentNotifier) NotifyTaskAutoPaused(ctx context.Context, taskName, reason string) error {
	return nil
}

type emptyThreads struct{}

func (emptyThreads) GetByIDs(ctx context.Context, ids []uint) (map[uint]*content.Thread, error) {
	return map[uint]*content.Thread{}, nil
}

func (emptyThreads) ListIDs(ctx context.Context, filter content.Filter) ([]uint, error) {
	return nil, nil
}

func (emptyThreads) RecentTitles(ctx context.Context, forumIDs []uint, limit int) ([]string, error) {
	return nil, nil
}

func approvalTask(t *testing.T, taskType automation.TaskType) *automation.Task {
	t.Helper()
	task, err := automation.NewTask("on approval", taskType, automation.Config{RunOnApproval: true},
		automation.FreqDaily, []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		}, time.Now().UTC())
	require.NoError(t, err)
	return task
}

func newApprovedUseCase(tasks *fakeTasks, gen *countingGenerator) *HandleContentApprovedUseCase {
	log := logger.NewLogger()
	history := &fakeApprovedHistory{}
	guard := services.NewSimilarityGuard(history, log)
	engine := services.NewEngine(tasks, log)
	runner := services.NewRunner(guard, history, emptyThreads{}, gen, staticCreds{}, openGate{},
		silentNotifier{}, 5*time.Minute, 3, log)
	return NewHandleContentApprovedUseCase(tasks, engine, runner, log)
}

func TestHandleContentApproved_ReplyOnlyFiresReplyGenerator(t *testing.T) {
	tasks := &fakeTasks{tasks: []*automation.Task{
		approvalTask(t, automation.TaskReplyGenerator),
		approvalTask(t, automation.TaskTopicGenerator),
		approvalTask(t, automation.TaskTagMaintenance),
	}}
	gen := &countingGenerator{}
	uc := newApprovedUseCase(tasks, gen)

	err := uc.Execute(context.Background(), ContentApprovedEvent{
		ItemID: 7, ForumID: 3, ContentType: "reply",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{string(automation.TaskReplyGenerator)}, gen.taskTypes,
		"a reply approval must not trigger topic or tag tasks")
}

func TestHandleContentApproved_TopicFiresReplyAndTagTasks(t *testing.T) {
	tasks := &fakeTasks{tasks: []*automation.Task{
		approvalTask(t, automation.TaskReplyGenerator),
		approvalTask(t, automation.TaskTopicGenerator),
		approvalTask(t, automation.TaskTagMaintenance),
	}}
	gen := &countingGenerator{}
	uc := newApprovedUseCase(tasks, gen)

	err := uc.Execute(context.Background(), ContentApprovedEvent{
		ItemID: 7, ForumID: 3, ContentType: "topic",
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		string(automation.TaskReplyGenerator),
		string(automation.TaskTagMaintenance),
	}, gen.taskTypes)
}

func TestHandleContentApproved_UnknownContentTypeRejected(t *testing.T) {
	uc := newApprovedUseCase(&fakeTasks{}, &countingGenerator{})

	err := uc.Execute(context.Background(), ContentApprovedEvent{
		ItemID: 7, ForumID: 3, ContentType: "attachment",
	})
	assert.True(t, apperrors.IsValidationError(err))
}
