package models

import (
	"time"

	"gorm.io/datatypes"
)

// IndexingJobModel is one submitted batch. Items holds the ordered JSON list
// of per-item submission states so a retried drain resumes exactly where the
// previous wake-up stopped.
type IndexingJobModel struct {
	ID              uint           `gorm:"primarykey"`
	JobID           string         `gorm:"uniqueIndex;not null;size:36"`
	Items           datatypes.JSON `gorm:"not null"`
	ChunkSize       int            `gorm:"not null"`
	OverlapPercent  int            `gorm:"not null"`
	Status          string         `gorm:"not null;size:20;index:idx_job_status"`
	CreditsReserved int            `gorm:"not null;default:0"`
	CreditsConsumed int            `gorm:"not null;default:0"`
	CreatedAt       time.Time      `gorm:"index:idx_job_created"`
	UpdatedAt       time.Time
}

func (IndexingJobModel) TableName() string {
	return "indexing_jobs"
}
