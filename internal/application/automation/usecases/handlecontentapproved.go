package usecases

import (
	"context"
	"fmt"

	"threadmind/internal/application/automation/services"
	"threadmind/internal/domain/automation"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

// ContentApprovedEvent is emitted by the forum when a moderator approves a
// piece of content. ContentType is "topic" or "reply".
type ContentApprovedEvent struct {
	ItemID      uint
	ForumID     uint
	ContentType string
}

// approvalTaskTypes maps the kind of approved content to the task types it
// can trigger. A fresh topic gets a seeded reply and its tags maintained; an
// approved reply only feeds the reply generator. Topic generators are
// schedule-only.
func approvalTaskTypes(contentType string) []automation.TaskType {
	switch contentType {
	case "topic":
		return []automation.TaskType{automation.TaskReplyGenerator, automation.TaskTagMaintenance}
	case "reply":
		return []automation.TaskType{automation.TaskReplyGenerator}
	}
	return nil
}

// HandleContentApprovedUseCase fires the approval-driven tasks whose scope
// covers the approved content's forum.
type HandleContentApprovedUseCase struct {
	tasks  automation.Repository
	engine *services.Engine
	runner *services.Runner
	logger logger.Interface
}

func NewHandleContentApprovedUseCase(
	tasks automation.Repository,
	engine *services.Engine,
	runner *services.Runner,
	logger logger.Interface,
) *HandleContentApprovedUseCase {
	return &HandleContentApprovedUseCase{tasks: tasks, engine: engine, runner: runner, logger: logger}
}

func (uc *HandleContentApprovedUseCase) Execute(ctx context.Context, event ContentApprovedEvent) error {
	taskTypes := approvalTaskTypes(event.ContentType)
	if len(taskTypes) == 0 {
		return apperrors.NewValidationError(fmt.Sprintf("unknown content type %q", event.ContentType))
	}

	var candidates []*automation.Task
	for _, taskType := range taskTypes {
		tasks, err := uc.engine.ApprovalTasks(ctx, taskType)
		if err != nil {
			return err
		}
		candidates = append(candidates, tasks...)
	}

	for _, task := range candidates {
		if !scopeCovers(task.Config().Scope, event.ForumID) {
			continue
		}
		result, rerr := uc.runner.Run(ctx, task)
		if rerr != nil {
			uc.logger.Errorw("approval-driven run aborted",
				"task_id", task.TaskID(), "item_id", event.ItemID, "error", rerr)
			continue
		}
		if err := task.RecordRun(result); err != nil {
			uc.logger.Errorw("failed to record run", "task_id", task.TaskID(), "error", err)
			continue
		}
		if err := uc.tasks.Update(ctx, task); err != nil {
			uc.logger.Errorw("failed to persist run outcome", "task_id", task.TaskID(), "error", err)
		}
	}
	return nil
}

// scopeCovers reports whether a forum falls inside a task's scope. An empty
// forum list means the whole site.
func scopeCovers(scope automation.Scope, forumID uint) bool {
	if len(scope.ForumIDs) == 0 {
		return true
	}
	for _, id := range scope.ForumIDs {
		if id == forumID {
			return true
		}
	}
	return false
}
