package usecases

import (
	"context"

	"threadmind/internal/application/automation/services"
	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/logger"
)

// RunDueResult summarizes one scheduling wake-up.
type RunDueResult struct {
	Due       int
	Succeeded int
	Failed    int
}

// RunDueTasksUseCase is the wake-up entry point: it runs every due task once
// and persists each outcome individually, so one bad task cannot block the
// rest of the pass.
type RunDueTasksUseCase struct {
	tasks  automation.Repository
	engine *services.Engine
	runner *services.Runner
	logger logger.Interface
}

func NewRunDueTasksUseCase(
	tasks automation.Repository,
	engine *services.Engine,
	runner *services.Runner,
	logger logger.Interface,
) *RunDueTasksUseCase {
	return &RunDueTasksUseCase{tasks: tasks, engine: engine, runner: runner, logger: logger}
}

func (uc *RunDueTasksUseCase) Execute(ctx context.Context) (*RunDueResult, error) {
	due, err := uc.engine.DueTasks(ctx)
	if err != nil {
		return nil, err
	}

	result := &RunDueResult{Due: len(due)}
	for _, task := range due {
		runResult, rerr := uc.runner.Run(ctx, task)
		if rerr != nil {
			uc.logger.Errorw("task run aborted", "task_id", task.TaskID(), "error", rerr)
			result.Failed++
			continue
		}
		if runResult.Succeeded {
			result.Succeeded++
		} else {
			result.Failed++
		}
		if err := task.RecordRun(runResult); err != nil {
			uc.logger.Errorw("failed to record run", "task_id", task.TaskID(), "error", err)
			continue
		}
		if err := uc.tasks.Update(ctx, task); err != nil {
			uc.logger.Errorw("failed to persist run outcome", "task_id", task.TaskID(), "error", err)
		}
	}

	if result.Due > 0 {
		uc.logger.Infow("scheduled pass complete",
			"due", result.Due, "succeeded", result.Succeeded, "failed", result.Failed)
	}
	return result, nil
}
