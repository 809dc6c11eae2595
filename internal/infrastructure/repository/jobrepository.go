package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"threadmind/internal/domain/indexing"
	"threadmind/internal/infrastructure/persistence/models"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

var nonTerminalStatuses = []string{
	string(indexing.JobQueued),
	string(indexing.JobProcessing),
}

// JobRepositoryImpl implements indexing.JobRepository on gorm.
type JobRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewJobRepository(db *gorm.DB, log logger.Interface) indexing.JobRepository {
	return &JobRepositoryImpl{db: db, logger: log}
}

func (r *JobRepositoryImpl) Create(ctx context.Context, job *indexing.Job) error {
	model, err := jobFromEntity(job)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create indexing job", "job_id", job.JobID(), "error", err)
		return fmt.Errorf("failed to create indexing job: %w", err)
	}
	if err := job.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set job ID: %w", err)
	}
	r.logger.Infow("indexing job queued",
		"job_id", job.JobID(),
		"items", len(job.Items()),
		"credits_reserved", job.CreditsReserved())
	return nil
}

func (r *JobRepositoryImpl) Update(ctx context.Context, job *indexing.Job) error {
	model, err := jobFromEntity(job)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.IndexingJobModel{}).
		Where("job_id = ?", job.JobID()).
		Updates(map[string]any{
			"items":            model.Items,
			"status":           model.Status,
			"credits_consumed": model.CreditsConsumed,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update indexing job", "job_id", job.JobID(), "error", result.Error)
		return fmt.Errorf("failed to update indexing job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("indexing job not found")
	}
	return nil
}

func (r *JobRepositoryImpl) GetByJobID(ctx context.Context, jobID string) (*indexing.Job, error) {
	var model models.IndexingJobModel
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("indexing job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load indexing job: %w", err)
	}
	return jobToEntity(&model)
}

func (r *JobRepositoryImpl) NextActive(ctx context.Context) (*indexing.Job, error) {
	var model models.IndexingJobModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", nonTerminalStatuses).
		Order("created_at, id").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load next active job: %w", err)
	}
	return jobToEntity(&model)
}

func (r *JobRepositoryImpl) NonTerminalItemIDs(ctx context.Context) (map[uint]bool, error) {
	var rows []models.IndexingJobModel
	if err := r.db.WithContext(ctx).
		Select("items").
		Where("status IN ?", nonTerminalStatuses).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load outstanding jobs: %w", err)
	}

	held := make(map[uint]bool)
	for _, row := range rows {
		var items []indexing.JobItem
		if err := json.Unmarshal(row.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to decode job items: %w", err)
		}
		for _, it := range items {
			held[it.ItemID] = true
		}
	}
	return held, nil
}

// CancelAll cancels every non-terminal job inside one transaction: a cancel
// racing with a drain either fully precedes or fully follows it.
func (r *JobRepositoryImpl) CancelAll(ctx context.Context) (int, int, error) {
	jobsCleared := 0
	itemsCleared := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.IndexingJobModel
		if err := tx.Where("status IN ?", nonTerminalStatuses).Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to load jobs for cancel: %w", err)
		}
		for _, row := range rows {
			job, err := jobToEntity(&row)
			if err != nil {
				return err
			}
			pending, _, _ := job.Counts()
			if err := job.Cancel(); err != nil {
				return err
			}
			model, err := jobFromEntity(job)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.IndexingJobModel{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{
					"status":     model.Status,
					"updated_at": model.UpdatedAt,
				}).Error; err != nil {
				return fmt.Errorf("failed to cancel job %s: %w", row.JobID, err)
			}
			jobsCleared++
			itemsCleared += pending
		}
		return nil
	})
	if err != nil {
		r.logger.Errorw("failed to cancel indexing jobs", "error", err)
		return 0, 0, err
	}

	if jobsCleared > 0 {
		r.logger.Infow("indexing jobs cancelled", "jobs", jobsCleared, "pending_items", itemsCleared)
	}
	return jobsCleared, itemsCleared, nil
}

func (r *JobRepositoryImpl) HasActive(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.IndexingJobModel{}).
		Where("status IN ?", nonTerminalStatuses).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count active jobs: %w", err)
	}
	return count > 0, nil
}

func jobToEntity(m *models.IndexingJobModel) (*indexing.Job, error) {
	var items []indexing.JobItem
	if err := json.Unmarshal(m.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to decode job items: %w", err)
	}
	return indexing.ReconstructJob(
		m.ID,
		m.JobID,
		items,
		indexing.ChunkParams{ChunkSize: m.ChunkSize, OverlapPercent: m.OverlapPercent},
		indexing.JobStatus(m.Status),
		m.CreditsReserved,
		m.CreditsConsumed,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func jobFromEntity(j *indexing.Job) (*models.IndexingJobModel, error) {
	items, err := json.Marshal(j.Items())
	if err != nil {
		return nil, fmt.Errorf("failed to encode job items: %w", err)
	}
	return &models.IndexingJobModel{
		ID:              j.ID(),
		JobID:           j.JobID(),
		Items:           items,
		ChunkSize:       j.Params().ChunkSize,
		OverlapPercent:  j.Params().OverlapPercent,
		Status:          string(j.Status()),
		CreditsReserved: j.CreditsReserved(),
		CreditsConsumed: j.CreditsConsumed(),
		CreatedAt:       j.CreatedAt(),
		UpdatedAt:       j.UpdatedAt(),
	}, nil
}
