package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"threadmind/internal/domain/automation"
	"threadmind/internal/infrastructure/persistence/models"
	"threadmind/internal/shared/logger"
)

// HistoryRepositoryImpl implements automation.HistoryRepository.
type HistoryRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewHistoryRepository(db *gorm.DB, log logger.Interface) automation.HistoryRepository {
	return &HistoryRepositoryImpl{db: db, logger: log}
}

func (r *HistoryRepositoryImpl) Save(ctx context.Context, item *automation.GeneratedItem) error {
	model := models.GeneratedContentModel{
		TaskID:    item.TaskID,
		TaskType:  string(item.TaskType),
		ForumID:   item.ForumID,
		Title:     item.Title,
		Body:      item.Body,
		CreatedAt: item.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.logger.Errorw("failed to save generated content", "task_id", item.TaskID, "error", err)
		return fmt.Errorf("failed to save generated content: %w", err)
	}
	item.ID = model.ID
	return nil
}

func (r *HistoryRepositoryImpl) ListRecent(ctx context.Context, since time.Time, forumIDs []uint) ([]*automation.GeneratedItem, error) {
	query := r.db.WithContext(ctx).Model(&models.GeneratedContentModel{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if len(forumIDs) > 0 {
		query = query.Where("forum_id IN ?", forumIDs)
	}

	var rows []models.GeneratedContentModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list generated content: %w", err)
	}

	items := make([]*automation.GeneratedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, &automation.GeneratedItem{
			ID:        row.ID,
			TaskID:    row.TaskID,
			TaskType:  automation.TaskType(row.TaskType),
			ForumID:   row.ForumID,
			Title:     row.Title,
			Body:      row.Body,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}
