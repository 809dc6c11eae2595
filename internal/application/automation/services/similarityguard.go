package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/logger"
)

// Match describes the recent item a candidate was found too similar to.
type Match struct {
	Score    float64
	ItemID   uint
	Title    string
	TaskID   string
	Occurred time.Time
}

// SimilarityGuard blocks generated content that is too close to something a
// task recently produced. Scores are 0..100; a candidate at or above the
// configured threshold is rejected.
type SimilarityGuard struct {
	history automation.HistoryRepository
	folder  cases.Caser
	logger  logger.Interface
}

func NewSimilarityGuard(history automation.HistoryRepository, log logger.Interface) *SimilarityGuard {
	return &SimilarityGuard{history: history, folder: cases.Fold(), logger: log}
}

// Check compares the candidate against the lookback window and returns the
// best match at or above the threshold, or nil when the candidate is fine.
// Disabled duplicate prevention always passes.
func (g *SimilarityGuard) Check(ctx context.Context, cfg automation.Config, title, body string) (*Match, error) {
	if !cfg.DuplicatePrevention {
		return nil, nil
	}

	var since time.Time
	if cfg.DuplicateCheckDays > 0 {
		since = time.Now().UTC().AddDate(0, 0, -cfg.DuplicateCheckDays)
	}
	recent, err := g.history.ListRecent(ctx, since, cfg.Scope.ForumIDs)
	if err != nil {
		return nil, err
	}

	candidate := g.normalize(title + " " + body)
	var best *Match
	for _, item := range recent {
		score := Similarity(candidate, g.normalize(item.Title+" "+item.Body))
		if score < cfg.SimilarityThreshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Match{
				Score:    score,
				ItemID:   item.ID,
				Title:    item.Title,
				TaskID:   item.TaskID,
				Occurred: item.CreatedAt,
			}
		}
	}

	if best != nil {
		g.logger.Debugw("candidate rejected as duplicate",
			"score", best.Score, "threshold", cfg.SimilarityThreshold, "matched_item", best.ItemID)
	}
	return best, nil
}

func (g *SimilarityGuard) normalize(s string) string {
	s = norm.NFC.String(s)
	s = g.folder.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Similarity scores two normalized strings on a 0..100 scale using trigram
// Jaccard overlap. Texts shorter than one trigram only match exactly.
func Similarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for t := range ta {
		if tb[t] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return 100 * float64(intersection) / float64(union)
}

func trigrams(s string) map[string]bool {
	runes := []rune(s)
	if len(runes) < 3 {
		return nil
	}
	out := make(map[string]bool, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out[string(runes[i:i+3])] = true
	}
	return out
}
