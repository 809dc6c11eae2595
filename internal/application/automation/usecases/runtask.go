package usecases

import (
	"context"
	"fmt"

	"threadmind/internal/application/automation/services"
	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/logger"
)

// RunTaskUseCase executes one task immediately, outside its schedule. Manual
// runs go through the same gate and guard as scheduled ones and count toward
// the task's totals.
type RunTaskUseCase struct {
	tasks  automation.Repository
	runner *services.Runner
	logger logger.Interface
}

func NewRunTaskUseCase(tasks automation.Repository, runner *services.Runner, logger logger.Interface) *RunTaskUseCase {
	return &RunTaskUseCase{tasks: tasks, runner: runner, logger: logger}
}

func (uc *RunTaskUseCase) Execute(ctx context.Context, taskID string) (*automation.RunResult, error) {
	task, err := uc.tasks.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	result, err := uc.runner.Run(ctx, task)
	if err != nil {
		return nil, err
	}
	if err := task.RecordRun(result); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		uc.logger.Errorw("failed to persist run outcome", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to persist run outcome: %w", err)
	}

	uc.logger.Infow("task run complete",
		"task_id", taskID,
		"succeeded", result.Succeeded,
		"items_created", result.ItemsCreated,
		"credits_used", result.CreditsUsed,
		"reason", result.Reason,
	)
	return &result, nil
}
