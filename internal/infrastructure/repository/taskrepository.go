package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"threadmind/internal/domain/automation"
	"threadmind/internal/infrastructure/persistence/models"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

// TaskRepositoryImpl implements automation.Repository.
type TaskRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewTaskRepository(db *gorm.DB, log logger.Interface) automation.Repository {
	return &TaskRepositoryImpl{db: db, logger: log}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *automation.Task) error {
	model, err := taskFromEntity(task)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create scheduled task", "name", task.Name(), "error", err)
		return fmt.Errorf("failed to create scheduled task: %w", err)
	}
	if err := task.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set task ID: %w", err)
	}
	r.logger.Infow("scheduled task created",
		"task_id", task.TaskID(), "type", task.Type(), "frequency", task.Frequency())
	return nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *automation.Task) error {
	model, err := taskFromEntity(task)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.ScheduledTaskModel{}).
		Where("task_id = ?", task.TaskID()).
		Updates(map[string]any{
			"name":            model.Name,
			"status":          model.Status,
			"config":          model.Config,
			"frequency":       model.Frequency,
			"active_days":     model.ActiveDays,
			"next_run_at":     model.NextRunAt,
			"last_run_at":     model.LastRunAt,
			"last_run_status": model.LastRunStatus,
			"last_run_reason": model.LastRunReason,
			"total_runs":      model.TotalRuns,
			"items_created":   model.ItemsCreated,
			"credits_used":    model.CreditsUsed,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update scheduled task", "task_id", task.TaskID(), "error", result.Error)
		return fmt.Errorf("failed to update scheduled task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("scheduled task not found")
	}
	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, taskID string) error {
	result := r.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&models.ScheduledTaskModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete scheduled task", "task_id", taskID, "error", result.Error)
		return fmt.Errorf("failed to delete scheduled task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("scheduled task not found")
	}
	r.logger.Infow("scheduled task deleted", "task_id", taskID)
	return nil
}

func (r *TaskRepositoryImpl) GetByTaskID(ctx context.Context, taskID string) (*automation.Task, error) {
	var model models.ScheduledTaskModel
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("scheduled task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled task: %w", err)
	}
	return taskToEntity(&model)
}

func (r *TaskRepositoryImpl) List(ctx context.Context) ([]*automation.Task, error) {
	var rows []models.ScheduledTaskModel
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list scheduled tasks: %w", err)
	}
	return tasksToEntities(rows)
}

func (r *TaskRepositoryImpl) ListActive(ctx context.Context) ([]*automation.Task, error) {
	var rows []models.ScheduledTaskModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(automation.TaskActive)).
		Order("next_run_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}
	return tasksToEntities(rows)
}

func tasksToEntities(rows []models.ScheduledTaskModel) ([]*automation.Task, error) {
	tasks := make([]*automation.Task, 0, len(rows))
	for i := range rows {
		task, err := taskToEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func taskToEntity(m *models.ScheduledTaskModel) (*automation.Task, error) {
	var cfg automation.Config
	if err := json.Unmarshal(m.Config, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode task config: %w", err)
	}
	var days []time.Weekday
	if err := json.Unmarshal(m.ActiveDays, &days); err != nil {
		return nil, fmt.Errorf("failed to decode active days: %w", err)
	}
	return automation.ReconstructTask(
		m.ID,
		m.TaskID,
		m.Name,
		automation.TaskType(m.TaskType),
		automation.TaskStatus(m.Status),
		cfg,
		automation.Frequency(m.Frequency),
		days,
		m.NextRunAt,
		m.LastRunAt,
		automation.RunStatus(m.LastRunStatus),
		m.LastRunReason,
		m.TotalRuns,
		m.ItemsCreated,
		m.CreditsUsed,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func taskFromEntity(t *automation.Task) (*models.ScheduledTaskModel, error) {
	cfg, err := json.Marshal(t.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to encode task config: %w", err)
	}
	days, err := json.Marshal(t.ActiveDays())
	if err != nil {
		return nil, fmt.Errorf("failed to encode active days: %w", err)
	}
	return &models.ScheduledTaskModel{
		ID:            t.ID(),
		TaskID:        t.TaskID(),
		Name:          t.Name(),
		TaskType:      string(t.Type()),
		Status:        string(t.Status()),
		Config:        cfg,
		Frequency:     string(t.Frequency()),
		ActiveDays:    days,
		NextRunAt:     t.NextRunAt(),
		LastRunAt:     t.LastRunAt(),
		LastRunStatus: string(t.LastRunStatus()),
		LastRunReason: t.LastRunReason(),
		TotalRuns:     t.TotalRuns(),
		ItemsCreated:  t.ItemsCreated(),
		CreditsUsed:   t.CreditsUsed(),
		CreatedAt:     t.CreatedAt(),
		UpdatedAt:     t.UpdatedAt(),
	}, nil
}
