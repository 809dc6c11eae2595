package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allWeekdays() []time.Weekday {
	return []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
}

func validConfig() Config {
	return Config{
		Quality:             QualityStandard,
		CreditStopThreshold: 10,
		DuplicatePrevention: true,
		SimilarityThreshold: 75,
		DuplicateCheckDays:  30,
	}
}

func newTestTask(t *testing.T, freq Frequency) *Task {
	t.Helper()
	task, err := NewTask("daily digest", TaskTopicGenerator, validConfig(), freq, allWeekdays(), time.Now())
	require.NoError(t, err)
	return task
}

func TestNewTask_Validation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		fn   func() (*Task, error)
	}{
		{"empty name", func() (*Task, error) {
			return NewTask("", TaskTopicGenerator, validConfig(), FreqDaily, allWeekdays(), now)
		}},
		{"invalid type", func() (*Task, error) {
			return NewTask("x", TaskType("poem_generator"), validConfig(), FreqDaily, allWeekdays(), now)
		}},
		{"invalid frequency", func() (*Task, error) {
			return NewTask("x", TaskTopicGenerator, validConfig(), Frequency("fortnightly"), allWeekdays(), now)
		}},
		{"no active days", func() (*Task, error) {
			return NewTask("x", TaskTopicGenerator, validConfig(), FreqDaily, nil, now)
		}},
		{"threshold out of range", func() (*Task, error) {
			cfg := validConfig()
			cfg.SimilarityThreshold = 101
			return NewTask("x", TaskTopicGenerator, cfg, FreqDaily, allWeekdays(), now)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.fn()
			assert.Error(t, err)
		})
	}
}

func TestTask_IsDue(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) // a Wednesday
	task, err := NewTask("digest", TaskTopicGenerator, validConfig(), FreqDaily,
		[]time.Weekday{time.Wednesday}, now.Add(-25*time.Hour))
	require.NoError(t, err)

	assert.True(t, task.IsDue(now, time.Wednesday))
	assert.False(t, task.IsDue(now, time.Thursday), "outside active days")
	assert.False(t, task.IsDue(task.NextRunAt().Add(-time.Minute), time.Wednesday), "before next_run_at")

	task.Pause("operator")
	assert.False(t, task.IsDue(now, time.Wednesday), "paused task never due")
}

func TestTask_RunOnApprovalNeverScheduleDue(t *testing.T) {
	cfg := validConfig()
	cfg.RunOnApproval = true
	task, err := NewTask("replier", TaskReplyGenerator, cfg, FreqHourly, allWeekdays(), time.Now().Add(-48*time.Hour))
	require.NoError(t, err)

	assert.True(t, task.RunsOnApproval())
	assert.False(t, task.IsDue(time.Now(), time.Now().Weekday()))
}

// A run executed late must anchor the next run to its own start time, not to
// the stale next_run_at, and never queue catch-up runs.
func TestTask_RecordRunNoDrift(t *testing.T) {
	task := newTestTask(t, FreqDaily)

	// Pretend the wake-up fired 3 days after the scheduled slot.
	lateStart := task.NextRunAt().Add(72 * time.Hour)
	require.NoError(t, task.RecordRun(RunResult{
		Succeeded:    true,
		ItemsCreated: 2,
		CreditsUsed:  6,
		StartedAt:    lateStart,
	}))

	assert.Equal(t, lateStart.Add(24*time.Hour), task.NextRunAt())
	require.NotNil(t, task.LastRunAt())
	assert.Equal(t, lateStart, *task.LastRunAt())
}

func TestTask_CountersAreMonotonicAndAttemptsAlwaysCounted(t *testing.T) {
	task := newTestTask(t, FreqHourly)

	require.NoError(t, task.RecordRun(RunResult{Succeeded: true, ItemsCreated: 3, CreditsUsed: 9, StartedAt: time.Now()}))
	require.NoError(t, task.RecordRun(RunResult{Succeeded: false, StartedAt: time.Now(), Reason: "generation failed"}))
	require.NoError(t, task.RecordRun(RunResult{Succeeded: true, ItemsCreated: 1, CreditsUsed: 2, StartedAt: time.Now()}))

	assert.Equal(t, 3, task.TotalRuns(), "failures still count as attempts")
	assert.Equal(t, 4, task.ItemsCreated())
	assert.Equal(t, 11, task.CreditsUsed())
	assert.Equal(t, RunSuccess, task.LastRunStatus())
}

func TestTask_PauseResume(t *testing.T) {
	task := newTestTask(t, FreqDaily)

	task.Pause("credits below threshold")
	assert.Equal(t, TaskPaused, task.Status())
	assert.Equal(t, "credits below threshold", task.LastRunReason())

	task.Resume()
	assert.Equal(t, TaskActive, task.Status())
}

func TestTask_UpdateDefinitionRecomputesNextRun(t *testing.T) {
	task := newTestTask(t, FreqWeekly)
	now := time.Now().UTC()

	require.NoError(t, task.UpdateDefinition("digest v2", validConfig(), FreqHourly, allWeekdays(), now))

	assert.Equal(t, FreqHourly, task.Frequency())
	assert.WithinDuration(t, now.Add(time.Hour), task.NextRunAt(), time.Second)
}

func TestFrequency_Duration(t *testing.T) {
	tests := []struct {
		freq Frequency
		want time.Duration
	}{
		{FreqHourly, time.Hour},
		{FreqThreeHours, 3 * time.Hour},
		{FreqSixHours, 6 * time.Hour},
		{FreqDaily, 24 * time.Hour},
		{FreqThreeDays, 72 * time.Hour},
		{FreqWeekly, 168 * time.Hour},
	}
	for _, tc := range tests {
		d, err := tc.freq.Duration()
		require.NoError(t, err)
		assert.Equal(t, tc.want, d)
	}

	_, err := Frequency("yearly").Duration()
	assert.Error(t, err)
}
