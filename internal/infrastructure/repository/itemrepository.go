package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"threadmind/internal/domain/indexing"
	"threadmind/internal/infrastructure/persistence/models"
	"threadmind/internal/shared/logger"
)

// ItemRepositoryImpl implements indexing.ItemRepository.
type ItemRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewItemRepository(db *gorm.DB, log logger.Interface) indexing.ItemRepository {
	return &ItemRepositoryImpl{db: db, logger: log}
}

func (r *ItemRepositoryImpl) GetByIDs(ctx context.Context, itemIDs []uint) (map[uint]*indexing.Item, error) {
	out := make(map[uint]*indexing.Item, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	var rows []models.IndexableItemModel
	if err := r.db.WithContext(ctx).Where("item_id IN ?", itemIDs).Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to load indexable items", "count", len(itemIDs), "error", err)
		return nil, fmt.Errorf("failed to load indexable items: %w", err)
	}

	for _, row := range rows {
		item, err := indexing.ReconstructItem(
			row.ItemID, row.ContentHash,
			row.LocalIndexed, row.CloudIndexed, row.HasImage,
			row.LastIndexedAt,
		)
		if err != nil {
			return nil, err
		}
		out[row.ItemID] = item
	}
	return out, nil
}

// Upsert inserts or replaces the per-item record keyed by item_id.
func (r *ItemRepositoryImpl) Upsert(ctx context.Context, item *indexing.Item) error {
	model := models.IndexableItemModel{
		ItemID:        item.ItemID(),
		ContentHash:   item.ContentHash(),
		LocalIndexed:  item.LocalIndexed(),
		CloudIndexed:  item.CloudIndexed(),
		HasImage:      item.HasImage(),
		LastIndexedAt: item.LastIndexedAt(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"content_hash", "local_indexed", "cloud_indexed", "has_image", "last_indexed_at", "updated_at",
			}),
		}).
		Create(&model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert indexable item", "item_id", item.ItemID(), "error", err)
		return fmt.Errorf("failed to upsert indexable item: %w", err)
	}
	return nil
}

func (r *ItemRepositoryImpl) ResetAllFlags(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.IndexableItemModel{}).
		Where("local_indexed = ? OR cloud_indexed = ?", true, true).
		Updates(map[string]any{
			"local_indexed":   false,
			"cloud_indexed":   false,
			"content_hash":    "",
			"last_indexed_at": nil,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to reset item flags", "error", result.Error)
		return 0, fmt.Errorf("failed to reset item flags: %w", result.Error)
	}
	r.logger.Infow("index flags reset", "items", result.RowsAffected)
	return result.RowsAffected, nil
}

func (r *ItemRepositoryImpl) CountIndexed(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.IndexableItemModel{}).
		Where("cloud_indexed = ?", true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count indexed items: %w", err)
	}
	return count, nil
}
