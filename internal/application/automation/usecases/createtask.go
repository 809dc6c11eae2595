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

type CreateTaskCommand struct {
	Name       string
	Type       automation.TaskType
	Config     automation.Config
	Frequency  automation.Frequency
	ActiveDays []time.Weekday
}

type CreateTaskUseCase struct {
	tasks  automation.Repository
	logger logger.Interface
}

func NewCreateTaskUseCase(tasks automation.Repository, logger logger.Interface) *CreateTaskUseCase {
	return &CreateTaskUseCase{tasks: tasks, logger: logger}
}

func (uc *CreateTaskUseCase) Execute(ctx context.Context, cmd CreateTaskCommand) (*automation.Task, error) {
	task, err := automation.NewTask(cmd.Name, cmd.Type, cmd.Config, cmd.Frequency, cmd.ActiveDays, biztime.NowUTC())
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := uc.tasks.Create(ctx, task); err != nil {
		uc.logger.Errorw("failed to create task", "name", cmd.Name, "error", err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	uc.logger.Infow("task created",
		"task_id", task.TaskID(),
		"type", task.Type(),
		"frequency", task.Frequency(),
		"next_run_at", task.NextRunAt(),
	)
	return task, nil
}
