// Package seeds installs the default automation tasks on first boot.
package seeds

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/biztime"
	"threadmind/internal/shared/logger"
)

// seedFile is the on-disk shape of the task seed document.
type seedFile struct {
	Tasks []seedTask `yaml:"tasks"`
}

type seedTask struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Frequency  string   `yaml:"frequency"`
	ActiveDays []string `yaml:"active_days"`
	Config     struct {
		ForumIDs            []uint  `yaml:"forum_ids"`
		TagFilter           string  `yaml:"tag_filter"`
		MaxAgeDays          int     `yaml:"max_age_days"`
		Style               string  `yaml:"style"`
		Tone                string  `yaml:"tone"`
		Quality             string  `yaml:"quality"`
		CreditStopThreshold int     `yaml:"credit_stop_threshold"`
		AutoPauseOnLimit    bool    `yaml:"auto_pause_on_limit"`
		DuplicatePrevention bool    `yaml:"duplicate_prevention"`
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		DuplicateCheckDays  int     `yaml:"duplicate_check_days"`
		RunOnApproval       bool    `yaml:"run_on_approval"`
	} `yaml:"config"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// TaskSeeder creates the tasks listed in the seed file when the task table
// is still empty. Reruns are no-ops so operators can leave it enabled.
type TaskSeeder struct {
	tasks  automation.Repository
	logger logger.Interface
}

func NewTaskSeeder(tasks automation.Repository, log logger.Interface) *TaskSeeder {
	return &TaskSeeder{tasks: tasks, logger: log}
}

// Seed loads the YAML document at path and installs its tasks. A missing
// file is not an error, it simply means no defaults were shipped.
func (s *TaskSeeder) Seed(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Debugw("no task seed file, skipping", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	existing, err := s.tasks.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing tasks: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debugw("tasks already present, skipping seed", "count", len(existing))
		return nil
	}

	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	created := 0
	for _, st := range doc.Tasks {
		task, err := buildTask(st)
		if err != nil {
			s.logger.Errorw("skipping invalid seed task", "name", st.Name, "error", err)
			continue
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create seed task %s: %w", st.Name, err)
		}
		created++
	}
	if created > 0 {
		s.logger.Infow("seeded default tasks", "count", created)
	}
	return nil
}

func buildTask(st seedTask) (*automation.Task, error) {
	days, err := parseWeekdays(st.ActiveDays)
	if err != nil {
		return nil, err
	}
	cfg := automation.Config{
		Scope: automation.Scope{
			ForumIDs:   st.Config.ForumIDs,
			TagFilter:  st.Config.TagFilter,
			MaxAgeDays: st.Config.MaxAgeDays,
		},
		Style:               st.Config.Style,
		Tone:                st.Config.Tone,
		Quality:             automation.QualityTier(st.Config.Quality),
		CreditStopThreshold: st.Config.CreditStopThreshold,
		AutoPauseOnLimit:    st.Config.AutoPauseOnLimit,
		DuplicatePrevention: st.Config.DuplicatePrevention,
		SimilarityThreshold: st.Config.SimilarityThreshold,
		DuplicateCheckDays:  st.Config.DuplicateCheckDays,
		RunOnApproval:       st.Config.RunOnApproval,
	}
	return automation.NewTask(
		st.Name,
		automation.TaskType(st.Type),
		cfg,
		automation.Frequency(st.Frequency),
		days,
		biztime.NowUTC(),
	)
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("active_days is required")
	}
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, ok := weekdayNames[n]
		if !ok {
			return nil, fmt.Errorf("unknown weekday: %s", n)
		}
		days = append(days, d)
	}
	return days, nil
}
