package handlers

import (
	"time"

	"threadmind/internal/domain/automation"
	apperrors "threadmind/internal/shared/errors"
)

type TaskRequest struct {
	Name       string            `json:"name" validate:"required,max=120"`
	Type       string            `json:"type" validate:"required,oneof=topic_generator reply_generator tag_maintenance"`
	Config     automation.Config `json:"config"`
	Frequency  string            `json:"frequency" validate:"required"`
	ActiveDays []string          `json:"active_days" validate:"required,min=1"`
}

type TaskResponse struct {
	TaskID        string            `json:"task_id"`
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	Status        string            `json:"status"`
	Config        automation.Config `json:"config"`
	Frequency     string            `json:"frequency"`
	ActiveDays    []string          `json:"active_days"`
	NextRunAt     time.Time         `json:"next_run_at"`
	LastRunAt     *time.Time        `json:"last_run_at,omitempty"`
	LastRunStatus string            `json:"last_run_status,omitempty"`
	LastRunReason string            `json:"last_run_reason,omitempty"`
	TotalRuns     int               `json:"total_runs"`
	ItemsCreated  int               `json:"items_created"`
	CreditsUsed   int               `json:"credits_used"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseActiveDays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, ok := dayNames[n]
		if !ok {
			return nil, apperrors.NewValidationError("unknown weekday: " + n)
		}
		days = append(days, d)
	}
	return days, nil
}

var dayLabels = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func formatActiveDays(days []time.Weekday) []string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			names = append(names, dayLabels[d])
		}
	}
	return names
}

func toTaskResponse(task *automation.Task) TaskResponse {
	return TaskResponse{
		TaskID:        task.TaskID(),
		Name:          task.Name(),
		Type:          string(task.Type()),
		Status:        string(task.Status()),
		Config:        task.Config(),
		Frequency:     string(task.Frequency()),
		ActiveDays:    formatActiveDays(task.ActiveDays()),
		NextRunAt:     task.NextRunAt(),
		LastRunAt:     task.LastRunAt(),
		LastRunStatus: string(task.LastRunStatus()),
		LastRunReason: task.LastRunReason(),
		TotalRuns:     task.TotalRuns(),
		ItemsCreated:  task.ItemsCreated(),
		CreditsUsed:   task.CreditsUsed(),
		CreatedAt:     task.CreatedAt(),
		UpdatedAt:     task.UpdatedAt(),
	}
}
