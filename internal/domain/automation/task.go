package automation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType identifies what a recurring automation produces.
type TaskType string

const (
	TaskTopicGenerator TaskType = "topic_generator"
	TaskReplyGenerator TaskType = "reply_generator"
	TaskTagMaintenance TaskType = "tag_maintenance"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskTopicGenerator, TaskReplyGenerator, TaskTagMaintenance:
		return true
	}
	return false
}

// TaskStatus is the operator-visible lifecycle of a task.
type TaskStatus string

const (
	TaskActive TaskStatus = "active"
	TaskPaused TaskStatus = "paused"
	TaskError  TaskStatus = "error"
)

// Frequency is the run interval of a task.
type Frequency string

const (
	FreqHourly     Frequency = "hourly"
	FreqThreeHours Frequency = "3hours"
	FreqSixHours   Frequency = "6hours"
	FreqDaily      Frequency = "daily"
	FreqThreeDays  Frequency = "3days"
	FreqWeekly     Frequency = "weekly"
)

var frequencyDurations = map[Frequency]time.Duration{
	FreqHourly:     time.Hour,
	FreqThreeHours: 3 * time.Hour,
	FreqSixHours:   6 * time.Hour,
	FreqDaily:      24 * time.Hour,
	FreqThreeDays:  72 * time.Hour,
	FreqWeekly:     7 * 24 * time.Hour,
}

// Duration returns the interval length for the frequency.
func (f Frequency) Duration() (time.Duration, error) {
	d, ok := frequencyDurations[f]
	if !ok {
		return 0, fmt.Errorf("invalid frequency: %s", f)
	}
	return d, nil
}

func (f Frequency) IsValid() bool {
	_, ok := frequencyDurations[f]
	return ok
}

// RunStatus is the recorded outcome of the most recent run attempt.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// RunResult is what a single execution reports back to the task.
type RunResult struct {
	Succeeded    bool
	ItemsCreated int
	CreditsUsed  int
	StartedAt    time.Time
	Reason       string
}

// Task is one user-defined automation. Counters are monotonic: they only
// reset when the task itself is deleted.
type Task struct {
	id            uint
	taskID        string
	name          string
	taskType      TaskType
	status        TaskStatus
	config        Config
	frequency     Frequency
	activeDays    []time.Weekday
	nextRunAt     time.Time
	lastRunAt     *time.Time
	lastRunStatus RunStatus
	lastRunReason string
	totalRuns     int
	itemsCreated  int
	creditsUsed   int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewTask creates an active task with the first run scheduled one full
// period out from now.
func NewTask(name string, taskType TaskType, cfg Config, freq Frequency, activeDays []time.Weekday, now time.Time) (*Task, error) {
	if name == "" {
		return nil, fmt.Errorf("task name is required")
	}
	if !taskType.IsValid() {
		return nil, fmt.Errorf("invalid task type: %s", taskType)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	period, err := freq.Duration()
	if err != nil {
		return nil, err
	}
	if len(activeDays) == 0 {
		return nil, fmt.Errorf("at least one active day is required")
	}
	for _, d := range activeDays {
		if d < time.Sunday || d > time.Saturday {
			return nil, fmt.Errorf("invalid weekday: %d", d)
		}
	}

	now = now.UTC()
	return &Task{
		taskID:     uuid.NewString(),
		name:       name,
		taskType:   taskType,
		status:     TaskActive,
		config:     cfg,
		frequency:  freq,
		activeDays: activeDays,
		nextRunAt:  now.Add(period),
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructTask rebuilds a task from persistence.
func ReconstructTask(
	id uint,
	taskID, name string,
	taskType TaskType,
	status TaskStatus,
	cfg Config,
	freq Frequency,
	activeDays []time.Weekday,
	nextRunAt time.Time,
	lastRunAt *time.Time,
	lastRunStatus RunStatus,
	lastRunReason string,
	totalRuns, itemsCreated, creditsUsed int,
	createdAt, updatedAt time.Time,
) (*Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID is required")
	}
	if !taskType.IsValid() {
		return nil, fmt.Errorf("invalid task type: %s", taskType)
	}
	return &Task{
		id:            id,
		taskID:        taskID,
		name:          name,
		taskType:      taskType,
		status:        status,
		config:        cfg,
		frequency:     freq,
		activeDays:    activeDays,
		nextRunAt:     nextRunAt,
		lastRunAt:     lastRunAt,
		lastRunStatus: lastRunStatus,
		lastRunReason: lastRunReason,
		totalRuns:     totalRuns,
		itemsCreated:  itemsCreated,
		creditsUsed:   creditsUsed,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (t *Task) ID() uint                 { return t.id }
func (t *Task) TaskID() string           { return t.taskID }
func (t *Task) Name() string             { return t.name }
func (t *Task) Type() TaskType           { return t.taskType }
func (t *Task) Status() TaskStatus       { return t.status }
func (t *Task) Config() Config           { return t.config }
func (t *Task) Frequency() Frequency     { return t.frequency }
func (t *Task) ActiveDays() []time.Weekday { return t.activeDays }
func (t *Task) NextRunAt() time.Time     { return t.nextRunAt }
func (t *Task) LastRunAt() *time.Time    { return t.lastRunAt }
func (t *Task) LastRunStatus() RunStatus { return t.lastRunStatus }
func (t *Task) LastRunReason() string    { return t.lastRunReason }
func (t *Task) TotalRuns() int           { return t.totalRuns }
func (t *Task) ItemsCreated() int        { return t.itemsCreated }
func (t *Task) CreditsUsed() int         { return t.creditsUsed }
func (t *Task) CreatedAt() time.Time     { return t.createdAt }
func (t *Task) UpdatedAt() time.Time     { return t.updatedAt }

func (t *Task) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("task ID already set")
	}
	t.id = id
	return nil
}

// RunsOnApproval reports whether the task fires on content-approval events
// instead of the fixed schedule.
func (t *Task) RunsOnApproval() bool {
	return t.config.RunOnApproval
}

// IsActiveOn reports whether the weekday is one of the task's active days.
func (t *Task) IsActiveOn(day time.Weekday) bool {
	for _, d := range t.activeDays {
		if d == day {
			return true
		}
	}
	return false
}

// IsDue reports whether the task should run at the given time. Tasks that
// run on approval are never schedule-due.
func (t *Task) IsDue(now time.Time, weekday time.Weekday) bool {
	if t.status != TaskActive || t.RunsOnApproval() {
		return false
	}
	if !t.IsActiveOn(weekday) {
		return false
	}
	return !now.Before(t.nextRunAt)
}

// RecordRun applies the outcome of a run attempt. The next run is anchored
// to when this run started, not to the previous next_run_at, so a delayed
// wake-up neither drifts the schedule nor causes catch-up runs.
func (t *Task) RecordRun(result RunResult) error {
	period, err := t.frequency.Duration()
	if err != nil {
		return err
	}
	started := result.StartedAt.UTC()
	t.lastRunAt = &started
	t.nextRunAt = started.Add(period)
	t.totalRuns++
	t.lastRunReason = result.Reason
	if result.Succeeded {
		t.lastRunStatus = RunSuccess
		t.itemsCreated += result.ItemsCreated
		t.creditsUsed += result.CreditsUsed
	} else {
		t.lastRunStatus = RunFailure
	}
	t.updatedAt = time.Now().UTC()
	return nil
}

// Pause stops scheduling until the operator resumes the task.
func (t *Task) Pause(reason string) {
	t.status = TaskPaused
	t.lastRunReason = reason
	t.updatedAt = time.Now().UTC()
}

// Resume reactivates a paused or errored task.
func (t *Task) Resume() {
	t.status = TaskActive
	t.updatedAt = time.Now().UTC()
}

// MarkError flags the task after repeated execution failures.
func (t *Task) MarkError(reason string) {
	t.status = TaskError
	t.lastRunReason = reason
	t.updatedAt = time.Now().UTC()
}

// UpdateDefinition applies an operator edit. The next run is recomputed from
// now so a shortened frequency takes effect immediately.
func (t *Task) UpdateDefinition(name string, cfg Config, freq Frequency, activeDays []time.Weekday, now time.Time) error {
	if name == "" {
		return fmt.Errorf("task name is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	period, err := freq.Duration()
	if err != nil {
		return err
	}
	if len(activeDays) == 0 {
		return fmt.Errorf("at least one active day is required")
	}
	t.name = name
	t.config = cfg
	t.frequency = freq
	t.activeDays = activeDays
	t.nextRunAt = now.UTC().Add(period)
	t.updatedAt = time.Now().UTC()
	return nil
}
