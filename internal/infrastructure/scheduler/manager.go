// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"threadmind/internal/shared/biztime"
	"threadmind/internal/shared/logger"
)

// BatchJob is one scheduled pass. Execute returns how many items the pass
// actually processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// Manager owns the single gocron scheduler for all recurring work: draining
// the indexing queue, running due automation tasks, and refreshing the
// remote account state.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewManager creates the scheduler in the business timezone so cron
// expressions line up with the operator's day boundaries.
func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}
	return &Manager{scheduler: scheduler, logger: log}, nil
}

// RegisterIndexingJobs registers the queue drain pass. Singleton mode keeps
// a slow remote from piling up overlapping passes; the advisory lock inside
// the drain usecase additionally guards against other processes.
func (m *Manager) RegisterIndexingJobs(drainJob BatchJob, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runPass(ctx, "indexing-drain", drainJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("indexing", "drain"),
		gocron.WithName("indexing-drain"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered indexing jobs", "interval", interval)
	return nil
}

// RegisterAutomationJobs registers the due-task pass.
func (m *Manager) RegisterAutomationJobs(dueTasksJob BatchJob, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runPass(ctx, "automation-due", dueTasksJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("automation", "due-tasks"),
		gocron.WithName("automation-due-tasks"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered automation jobs", "interval", interval)
	return nil
}

// RegisterStateRefreshJobs registers the hourly account refresh, which keeps
// the resolved connection state and the credit snapshot warm without user
// traffic.
func (m *Manager) RegisterStateRefreshJobs(refreshJob BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 * * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			m.runPass(ctx, "state-refresh", refreshJob)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("tenant", "state-refresh"),
		gocron.WithName("tenant-state-refresh"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered state refresh jobs", "schedule", "hourly")
	return nil
}

func (m *Manager) runPass(ctx context.Context, name string, job BatchJob) {
	start := biztime.NowUTC()
	count, err := job.Execute(ctx)
	if err != nil {
		// Context cancellation during shutdown is not an error worth paging on.
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("scheduled pass failed",
			"job", name, "error", err, "duration", time.Since(start))
		return
	}
	if count > 0 {
		m.logger.Infow("scheduled pass completed",
			"job", name, "processed", count, "duration", time.Since(start))
	} else {
		m.logger.Debugw("scheduled pass completed with no work",
			"job", name, "duration", time.Since(start))
	}
}

// Start starts the scheduler and all registered jobs.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}
	m.logger.Infow("stopping scheduler")

	err := m.scheduler.Shutdown()
	m.started = false
	if err != nil {
		m.logger.Errorw("scheduler shutdown with error", "error", err)
		return err
	}
	m.logger.Infow("scheduler stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *Manager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *Manager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
