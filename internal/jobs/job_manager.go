package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRunTimeout bounds a single job run.
const DefaultRunTimeout = 30 * time.Second

// Job is one periodic task.
type Job interface {
	Name() string
	Run(ctx context.Context)
}

// Entry binds a job to a cron expression with a seconds field.
type Entry struct {
	Schedule string
	Job      Job
}

// JobManager runs every entry on a single cron scheduler. A run that is still
// in progress when the next tick fires is skipped, and a panicking run is
// recovered and logged.
type JobManager struct {
	cron       *cron.Cron
	entries    []Entry
	logger     *slog.Logger
	runTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewJobManager registers the entries without starting them.
//
// Example:
//
//	m := jobs.NewJobManager(logger, jobs.DefaultRunTimeout,
//		jobs.Entry{Schedule: "*/5 * * * * *", Job: assignmentJob})
//	if err := m.StartAll(); err != nil {
//		return err
//	}
//	defer m.StopAll()
func NewJobManager(logger *slog.Logger, runTimeout time.Duration, entries ...Entry) *JobManager {
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	logger = logger.With("component", "job_manager")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))

	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		entries:    entries,
		logger:     logger,
		runTimeout: runTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// StartAll registers every entry and starts the scheduler. Nothing runs when
// any schedule is invalid.
func (jm *JobManager) StartAll() error {
	for _, e := range jm.entries {
		job := e.Job
		if _, err := jm.cron.AddFunc(e.Schedule, func() { jm.run(job) }); err != nil {
			return fmt.Errorf("failed to schedule %s job %q: %w", job.Name(), e.Schedule, err)
		}
	}

	jm.cron.Start()
	for _, e := range jm.entries {
		jm.logger.Info("job scheduled", "job", e.Job.Name(), "schedule", e.Schedule)
	}
	return nil
}

// StopAll stops scheduling, cancels running jobs and waits for them to return.
func (jm *JobManager) StopAll() {
	done := jm.cron.Stop()
	jm.cancel()
	<-done.Done()
	jm.logger.Info("jobs stopped")
}

func (jm *JobManager) run(job Job) {
	ctx, cancel := context.WithTimeout(jm.ctx, jm.runTimeout)
	defer cancel()
	job.Run(ctx)
}
