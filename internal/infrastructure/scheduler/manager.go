// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"opsync/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages all scheduled background jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterLockReaperJob registers the record-lock reaper. The interval must
// be at most half of the shortest lease TTL in use, so no client ever sees a
// lock as live past roughly 1.5x its TTL; this is validated at config load.
// Singleton mode keeps a slow sweep from overlapping the next one.
func (m *SchedulerManager) RegisterLockReaperJob(reapJob BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runLockReaper(ctx, reapJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("lock", "reaper"),
		gocron.WithName("lock-reaper"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered lock reaper job", "interval", interval)
	return nil
}

func (m *SchedulerManager) runLockReaper(ctx context.Context, reapJob BatchJob) {
	startTime := time.Now()

	reaped, err := reapJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("lock reap sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if reaped > 0 {
		m.logger.Infow("expired locks reaped",
			"count", reaped,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no expired locks to reap",
			"duration", time.Since(startTime),
		)
	}
}

// RegisterSessionCleanupJob registers the expired-session sweep. Sessions
// expire on their own timestamps; this job just keeps the table small.
func (m *SchedulerManager) RegisterSessionCleanupJob(cleanupJob BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			m.runSessionCleanup(ctx, cleanupJob)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("session", "cleanup"),
		gocron.WithName("session-cleanup"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered session cleanup job", "interval", interval)
	return nil
}

func (m *SchedulerManager) runSessionCleanup(ctx context.Context, cleanupJob BatchJob) {
	removed, err := cleanupJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("session cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		m.logger.Infow("expired sessions removed", "count", removed)
	}
}

// Start begins executing registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler. It waits for running jobs to complete.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}
