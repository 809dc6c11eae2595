package usecases

import (
	"context"

	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/logger"
)

type DeleteTaskUseCase struct {
	tasks  automation.Repository
	logger logger.Interface
}

func NewDeleteTaskUseCase(tasks automation.Repository, logger logger.Interface) *DeleteTaskUseCase {
	return &DeleteTaskUseCase{tasks: tasks, logger: logger}
}

func (uc *DeleteTaskUseCase) Execute(ctx context.Context, taskID string) error {
	if err := uc.tasks.Delete(ctx, taskID); err != nil {
		uc.logger.Errorw("failed to delete task", "task_id", taskID, "error", err)
		return err
	}
	uc.logger.Infow("task deleted", "task_id", taskID)
	return nil
}
