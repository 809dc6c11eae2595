package usecases

import (
	"context"
	"fmt"

	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/logger"
)

type ToggleTaskCommand struct {
	TaskID string
	Pause  bool
	Reason string
}

// ToggleTaskUseCase pauses or resumes a task on operator request.
type ToggleTaskUseCase struct {
	tasks  automation.Repository
	logger logger.Interface
}

func NewToggleTaskUseCase(tasks automation.Repository, logger logger.Interface) *ToggleTaskUseCase {
	return &ToggleTaskUseCase{tasks: tasks, logger: logger}
}

func (uc *ToggleTaskUseCase) Execute(ctx context.Context, cmd ToggleTaskCommand) (*automation.Task, error) {
	task, err := uc.tasks.GetByTaskID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	if cmd.Pause {
		task.Pause(cmd.Reason)
	} else {
		task.Resume()
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		uc.logger.Errorw("failed to toggle task", "task_id", cmd.TaskID, "error", err)
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	uc.logger.Infow("task toggled", "task_id", task.TaskID(), "status", task.Status())
	return task, nil
}
