package usecases

import (
	"context"
	"fmt"
	"time"

	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/biztime"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type UpdateTaskCommand struct {
	TaskID     string
	Name       string
	Config     automation.Config
	Frequency  automation.Frequency
	ActiveDays []time.Weekday
}

type UpdateTaskUseCase struct {
	tasks  automation.Repository
	logger logger.Interface
}

func NewUpdateTaskUseCase(tasks automation.Repository, logger logger.Interface) *UpdateTaskUseCase {
	return &UpdateTaskUseCase{tasks: tasks, logger: logger}
}

func (uc *UpdateTaskUseCase) Execute(ctx context.Context, cmd UpdateTaskCommand) (*automation.Task, error) {
	task, err := uc.tasks.GetByTaskID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	if err := task.UpdateDefinition(cmd.Name, cmd.Config, cmd.Frequency, cmd.ActiveDays, biztime.NowUTC()); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		uc.logger.Errorw("failed to update task", "task_id", cmd.TaskID, "error", err)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	uc.logger.Infow("task updated", "task_id", task.TaskID(), "next_run_at", task.NextRunAt())
	return task, nil
}
