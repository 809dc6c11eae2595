package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScheduledTaskModel is one user-defined automation. Config is the
// task-type-specific parameter block; ActiveDays is a JSON array of weekday
// numbers (0 = Sunday).
type ScheduledTaskModel struct {
	ID            uint           `gorm:"primarykey"`
	TaskID        string         `gorm:"uniqueIndex;not null;size:36"`
	Name          string         `gorm:"not null;size:120"`
	TaskType      string         `gorm:"not null;size:30"`
	Status        string         `gorm:"not null;size:20;index:idx_task_status"`
	Config        datatypes.JSON `gorm:"not null"`
	Frequency     string         `gorm:"not null;size:10"`
	ActiveDays    datatypes.JSON `gorm:"not null"`
	NextRunAt     time.Time      `gorm:"index:idx_task_next_run"`
	LastRunAt     *time.Time
	LastRunStatus string `gorm:"size:10"`
	LastRunReason string `gorm:"size:500"`
	TotalRuns     int    `gorm:"not null;default:0"`
	ItemsCreated  int    `gorm:"not null;default:0"`
	CreditsUsed   int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ScheduledTaskModel) TableName() string {
	return "scheduled_tasks"
}
