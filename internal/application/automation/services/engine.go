package services

import (
	"context"
	"fmt"

	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/biztime"
	"threadmind/internal/shared/logger"
)

// Engine selects which tasks a wake-up should execute. Due-ness is evaluated
// per pass; nothing is queued ahead of time, so a wake-up that arrives late
// runs each overdue task exactly once.
type Engine struct {
	tasks  automation.Repository
	logger logger.Interface
}

func NewEngine(tasks automation.Repository, log logger.Interface) *Engine {
	return &Engine{tasks: tasks, logger: log}
}

// DueTasks returns the active schedule-driven tasks that are due now. The
// weekday check uses the business timezone.
func (e *Engine) DueTasks(ctx context.Context) ([]*automation.Task, error) {
	active, err := e.tasks.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}

	now := biztime.NowUTC()
	weekday := biztime.Weekday(now)
	var due []*automation.Task
	for _, task := range active {
		if task.IsDue(now, weekday) {
			due = append(due, task)
		}
	}

	if len(due) > 0 {
		e.logger.Debugw("due tasks selected", "active", len(active), "due", len(due), "weekday", weekday)
	}
	return due, nil
}

// ApprovalTasks returns the active tasks of the given type that fire on
// content approval instead of the schedule.
func (e *Engine) ApprovalTasks(ctx context.Context, taskType automation.TaskType) ([]*automation.Task, error) {
	active, err := e.tasks.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}

	var out []*automation.Task
	for _, task := range active {
		if task.RunsOnApproval() && task.Type() == taskType {
			out = append(out, task)
		}
	}
	return out, nil
}
