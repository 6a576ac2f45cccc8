package jobs

import (
	"context"
	"time"

	"github.com/barneeyyu/library-server/internal/config"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/service"
)

// jobTimeout bounds a single job run.
const jobTimeout = 10 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	notifications service.NotificationService
	config        *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(notifications service.NotificationService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		notifications: notifications,
		config:        cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	log := logger.WithMethod("jobs." + jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	log.Info("Starting job")
	if err := jobFunc(ctx); err != nil {
		log.Error("Job failed", "error", err, "duration", time.Since(start))
		return
	}
	log.Info("Job completed", "duration", time.Since(start))
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SendDueSoonNotices()
	jr.ReportOverdueLoans()
}
