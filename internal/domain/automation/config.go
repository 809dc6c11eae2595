package automation

import "fmt"

// QualityTier selects the generation model tier, which drives per-item cost.
type QualityTier string

const (
	QualityStandard QualityTier = "standard"
	QualityPremium  QualityTier = "premium"
)

// Scope restricts which part of the forum a task reads from and writes to.
type Scope struct {
	ForumIDs   []uint `json:"forum_ids,omitempty"`
	TagFilter  string `json:"tag_filter,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// Config is the task-type-specific parameter block stored with each task.
// Every task type carries the credit and duplicate-prevention settings.
type Config struct {
	Scope               Scope       `json:"scope"`
	Style               string      `json:"style,omitempty"`
	Tone                string      `json:"tone,omitempty"`
	Quality             QualityTier `json:"quality"`
	CreditStopThreshold int         `json:"credit_stop_threshold"`
	AutoPauseOnLimit    bool        `json:"auto_pause_on_limit"`
	DuplicatePrevention bool        `json:"duplicate_prevention"`
	SimilarityThreshold float64     `json:"similarity_threshold"`
	DuplicateCheckDays  int         `json:"duplicate_check_days"`
	RunOnApproval       bool        `json:"run_on_approval"`
}

// Validate rejects malformed configuration before any state mutation.
func (c Config) Validate() error {
	if c.Quality != "" && c.Quality != QualityStandard && c.Quality != QualityPremium {
		return fmt.Errorf("invalid quality tier: %s", c.Quality)
	}
	if c.CreditStopThreshold < 0 {
		return fmt.Errorf("credit stop threshold cannot be negative")
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("similarity threshold must be within [0,100], got %v", c.SimilarityThreshold)
	}
	if c.DuplicateCheckDays < 0 {
		return fmt.Errorf("duplicate check days cannot be negative")
	}
	if c.Scope.MaxAgeDays < 0 {
		return fmt.Errorf("scope max age days cannot be negative")
	}
	return nil
}
