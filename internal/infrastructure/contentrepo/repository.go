// Package contentrepo adapts the forum's thread tables to the read-only
// content.Repository port.
package contentrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"threadmind/internal/domain/content"
	"threadmind/internal/shared/logger"
)

// threadRow maps the forum's threads table. The forum owns the schema; this
// adapter never writes to it.
type threadRow struct {
	ID        uint
	ForumID   uint
	AuthorID  uint
	Title     string
	Body      string
	Tags      string // comma-separated in the forum schema
	HasImage  bool
	Approved  bool
	CreatedAt time.Time
}

func (threadRow) TableName() string {
	return "threads"
}

type RepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewRepository(db *gorm.DB, log logger.Interface) content.Repository {
	return &RepositoryImpl{db: db, logger: log}
}

func (r *RepositoryImpl) GetByIDs(ctx context.Context, ids []uint) (map[uint]*content.Thread, error) {
	out := make(map[uint]*content.Thread, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []threadRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to load threads", "count", len(ids), "error", err)
		return nil, fmt.Errorf("failed to load threads: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = rowToThread(row)
	}
	return out, nil
}

func (r *RepositoryImpl) ListIDs(ctx context.Context, filter content.Filter) ([]uint, error) {
	query := r.db.WithContext(ctx).Model(&threadRow{})
	if len(filter.ForumIDs) > 0 {
		query = query.Where("forum_id IN ?", filter.ForumIDs)
	}
	if filter.MaxAgeDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -filter.MaxAgeDays)
		query = query.Where("created_at >= ?", cutoff)
	}
	if filter.Approved {
		query = query.Where("approved = ?", true)
	}

	var ids []uint
	if err := query.Order("created_at DESC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list thread IDs: %w", err)
	}
	return ids, nil
}

func (r *RepositoryImpl) RecentTitles(ctx context.Context, forumIDs []uint, limit int) ([]string, error) {
	query := r.db.WithContext(ctx).Model(&threadRow{}).Where("approved = ?", true)
	if len(forumIDs) > 0 {
		query = query.Where("forum_id IN ?", forumIDs)
	}
	if limit <= 0 {
		limit = 20
	}

	var titles []string
	if err := query.Order("created_at DESC").Limit(limit).Pluck("title", &titles).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent titles: %w", err)
	}
	return titles, nil
}

func rowToThread(row threadRow) *content.Thread {
	var tags []string
	if row.Tags != "" {
		for _, t := range strings.Split(row.Tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return &content.Thread{
		ID:        row.ID,
		ForumID:   row.ForumID,
		AuthorID:  row.AuthorID,
		Title:     row.Title,
		Body:      row.Body,
		Tags:      tags,
		HasImage:  row.HasImage,
		Approved:  row.Approved,
		CreatedAt: row.CreatedAt,
	}
}
