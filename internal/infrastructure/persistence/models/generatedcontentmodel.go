package models

import "time"

// GeneratedContentModel records task output for the duplicate-prevention
// lookback window.
type GeneratedContentModel struct {
	ID        uint      `gorm:"primarykey"`
	TaskID    string    `gorm:"not null;size:36;index:idx_generated_task"`
	TaskType  string    `gorm:"not null;size:30"`
	ForumID   uint      `gorm:"index:idx_generated_forum"`
	Title     string    `gorm:"size:300"`
	Body      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_generated_created"`
}

func (GeneratedContentModel) TableName() string {
	return "generated_content"
}
