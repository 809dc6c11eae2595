package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/logger"
)

type fakeHistory struct {
	items     []*automation.GeneratedItem
	lastSince time.Time
}

func (f *fakeHistory) Save(ctx context.Context, item *automation.GeneratedItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeHistory) ListRecent(ctx context.Context, since time.Time, forumIDs []uint) ([]*automation.GeneratedItem, error) {
	f.lastSince = since
	var out []*automation.GeneratedItem
	for _, it := range f.items {
		if !since.IsZero() && it.CreatedAt.Before(since) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func guardConfig(threshold float64, days int) automation.Config {
	return automation.Config{
		DuplicatePrevention: true,
		SimilarityThreshold: threshold,
		DuplicateCheckDays:  days,
	}
}

func historyItem(id uint, title, body string, age time.Duration) *automation.GeneratedItem {
	return &automation.GeneratedItem{
		ID:        id,
		TaskID:    "task-1",
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC().Add(-age),
	}
}

func TestSimilarity(t *testing.T) {
	t.Run("identical text scores 100", func(t *testing.T) {
		assert.InDelta(t, 100, Similarity("how to configure backups", "how to configure backups"), 0.001)
	})

	t.Run("unrelated text scores near zero", func(t *testing.T) {
		score := Similarity("how to configure backups", "quarterly revenue projections")
		assert.Less(t, score, 10.0)
	})

	t.Run("near duplicates score high", func(t *testing.T) {
		score := Similarity(
			"how to configure automatic backups on linux",
			"how to configure automatic backups on linux servers",
		)
		assert.Greater(t, score, 70.0)
	})

	t.Run("empty strings score zero", func(t *testing.T) {
		assert.Zero(t, Similarity("", ""))
		assert.Zero(t, Similarity("abc", ""))
	})
}

func TestSimilarityGuard_RejectsAtThreshold(t *testing.T) {
	history := &fakeHistory{items: []*automation.GeneratedItem{
		historyItem(7, "How to configure backups", "Step by step backup configuration guide.", time.Hour),
	}}
	guard := NewSimilarityGuard(history, logger.NewLogger())

	match, err := guard.Check(context.Background(), guardConfig(80, 30),
		"How To Configure Backups", "Step by step backup configuration guide.")
	require.NoError(t, err)

	require.NotNil(t, match, "case differences must not hide a duplicate")
	assert.Equal(t, uint(7), match.ItemID)
	assert.GreaterOrEqual(t, match.Score, 80.0)
}

func TestSimilarityGuard_PassesDistinctContent(t *testing.T) {
	history := &fakeHistory{items: []*automation.GeneratedItem{
		historyItem(7, "How to configure backups", "Backup configuration.", time.Hour),
	}}
	guard := NewSimilarityGuard(history, logger.NewLogger())

	match, err := guard.Check(context.Background(), guardConfig(80, 30),
		"Choosing a database engine", "A comparison of storage engines for small forums.")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestSimilarityGuard_DisabledAlwaysPasses(t *testing.T) {
	history := &fakeHistory{items: []*automation.GeneratedItem{
		historyItem(7, "Same title", "Same body entirely.", time.Hour),
	}}
	guard := NewSimilarityGuard(history, logger.NewLogger())

	cfg := guardConfig(80, 30)
	cfg.DuplicatePrevention = false
	match, err := guard.Check(context.Background(), cfg, "Same title", "Same body entirely.")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestSimilarityGuard_LookbackWindowBoundsHistory(t *testing.T) {
	history := &fakeHistory{items: []*automation.GeneratedItem{
		historyItem(1, "Old duplicate", "This exact content was posted long ago.", 45*24*time.Hour),
	}}
	guard := NewSimilarityGuard(history, logger.NewLogger())

	match, err := guard.Check(context.Background(), guardConfig(80, 30),
		"Old duplicate", "This exact content was posted long ago.")
	require.NoError(t, err)

	assert.Nil(t, match, "items outside the lookback window must not block")
	assert.False(t, history.lastSince.IsZero())
}

func TestSimilarityGuard_ZeroDaysMeansUnlimitedLookback(t *testing.T) {
	history := &fakeHistory{items: []*automation.GeneratedItem{
		historyItem(1, "Old duplicate", "This exact content was posted long ago.", 45*24*time.Hour),
	}}
	guard := NewSimilarityGuard(history, logger.NewLogger())

	match, err := guard.Check(context.Background(), guardConfig(80, 0),
		"Old duplicate", "This exact content was posted long ago.")
	require.NoError(t, err)

	require.NotNil(t, match)
	assert.True(t, history.lastSince.IsZero())
}
