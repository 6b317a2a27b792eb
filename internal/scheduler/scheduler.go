package scheduler

import (
	"time"

	"dormhub-backend/internal/jobs"
	"dormhub-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision. A run that is
	// still going when the next tick fires is skipped.
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	// Persist lazy reservation expiry
	_, err := s.cron.AddFunc(cfg.ExpireReservations, s.jobs.ExpireReservations)
	if err != nil {
		logger.Error("Failed to register ExpireReservations job", "error", err)
	}

	// Publish outbox events
	_, err = s.cron.AddFunc(cfg.DispatchOutbox, s.jobs.DispatchOutbox)
	if err != nil {
		logger.Error("Failed to register DispatchOutbox job", "error", err)
	}

	logger.Info("All cron jobs registered successfully", "entries", len(s.cron.Entries()))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
