package jobs

import (
	"fmt"
	"sort"

	"dormhub-backend/internal/config"
	"dormhub-backend/internal/events"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/repository"
	"dormhub-backend/internal/service"
)

const (
	JobExpireReservations = "expire-reservations"
	JobDispatchOutbox     = "dispatch-outbox"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	outbox    repository.OutboxRepository
	services  *Services
	publisher events.Publisher
	config    *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Reservation service.ReservationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(outbox repository.OutboxRepository, services *Services, publisher events.Publisher, cfg *config.Config) *JobRunner {
	return &JobRunner{
		outbox:    outbox,
		services:  services,
		publisher: publisher,
		config:    cfg,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Debug("Starting job", "job", jobName)
	jobFunc()
	logger.Debug("Job completed", "job", jobName)
}

func (jr *JobRunner) registry() map[string]func() {
	return map[string]func(){
		JobExpireReservations: jr.ExpireReservations,
		JobDispatchOutbox:     jr.DispatchOutbox,
	}
}

// JobNames lists the jobs accepted by Run
func (jr *JobRunner) JobNames() []string {
	var names []string
	for name := range jr.registry() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes a single job by name (for manual execution)
func (jr *JobRunner) Run(name string) error {
	job, ok := jr.registry()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	job()
	return nil
}
