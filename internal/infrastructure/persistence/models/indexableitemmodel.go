package models

import "time"

// IndexableItemModel tracks per-thread indexing state. Rows are never
// deleted; clear-index resets the flags instead.
type IndexableItemModel struct {
	ID            uint   `gorm:"primarykey"`
	ItemID        uint   `gorm:"uniqueIndex;not null"`
	ContentHash   string `gorm:"size:64"`
	LocalIndexed  bool   `gorm:"not null;default:false"`
	CloudIndexed  bool   `gorm:"not null;default:false;index:idx_cloud_indexed"`
	HasImage      bool   `gorm:"not null;default:false"`
	LastIndexedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (IndexableItemModel) TableName() string {
	return "indexable_items"
}
