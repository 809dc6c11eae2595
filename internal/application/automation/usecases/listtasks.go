package usecases

import (
	"context"

	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/logger"
)

type ListTasksUseCase struct {
	tasks  automation.Repository
	logger logger.Interface
}

func NewListTasksUseCase(tasks automation.Repository, logger logger.Interface) *ListTasksUseCase {
	return &ListTasksUseCase{tasks: tasks, logger: logger}
}

func (uc *ListTasksUseCase) Execute(ctx context.Context) ([]*automation.Task, error) {
	return uc.tasks.List(ctx)
}
