package automation

import (
	"context"
	"time"
)

// GeneratedItem is one piece of content a task produced, kept so the
// similarity guard can compare new candidates against recent output.
type GeneratedItem struct {
	ID        uint
	TaskID    string
	TaskType  TaskType
	ForumID   uint
	Title     string
	Body      string
	CreatedAt time.Time
}

// HistoryRepository persists generated content for duplicate prevention.
type HistoryRepository interface {
	Save(ctx context.Context, item *GeneratedItem) error
	// ListRecent returns items created at or after since, optionally
	// restricted to the given forums. A zero since means unlimited lookback.
	ListRecent(ctx context.Context, since time.Time, forumIDs []uint) ([]*GeneratedItem, error)
}
