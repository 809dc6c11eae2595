// Package content is the read-only view of the forum's own data. The forum
// owns these records; this add-on only reads them.
package content

import (
	"context"
	"time"
)

// Thread is one content thread as the indexer and generators see it.
type Thread struct {
	ID        uint
	ForumID   uint
	AuthorID  uint
	Title     string
	Body      string // raw body, may contain Markdown and HTML
	Tags      []string
	HasImage  bool
	Approved  bool
	CreatedAt time.Time
}

// Filter restricts which threads a listing returns.
type Filter struct {
	ForumIDs   []uint
	MaxAgeDays int
	Approved   bool
}

// Repository provides read-only access to forum content.
type Repository interface {
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*Thread, error)
	// ListIDs returns thread IDs matching the filter, newest first.
	ListIDs(ctx context.Context, filter Filter) ([]uint, error)
	// RecentTitles returns up to limit recent thread titles in the given
	// forums, used as generation context.
	RecentTitles(ctx context.Context, forumIDs []uint, limit int) ([]string, error)
}
