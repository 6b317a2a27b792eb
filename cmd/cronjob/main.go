package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"dormhub-backend/internal/config"
	"dormhub-backend/internal/events"
	"dormhub-backend/internal/jobs"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/repository/postgres"
	"dormhub-backend/internal/scheduler"
	"dormhub-backend/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "cronjob",
		Short:         "Background jobs for the DormHub rentals backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.dev.yaml", "Path to configuration file")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the cron scheduler until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cleanup, err := setup(configPath)
			if err != nil {
				return err
			}
			defer cleanup()
			return serve(runner)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "run-once <job>",
		Short:     "Run a single job and exit (" + strings.Join([]string{jobs.JobExpireReservations, jobs.JobDispatchOutbox}, ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.JobExpireReservations, jobs.JobDispatchOutbox},
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cleanup, err := setup(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Info("Running job once", "job", args[0])
			if err := runner.Run(args[0]); err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(runner.JobNames(), ", "))
			}
			logger.Info("Job execution completed", "job", args[0])
			return nil
		},
	})

	return cmd
}

// setup loads configuration and builds the job runner. cleanup releases the
// database and broker connections.
func setup(configPath string) (*jobs.JobRunner, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting DormHub cronjob runner...", "log_level", cfg.Log.Level)

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	publisher := events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)

	jobServices := &jobs.Services{
		Reservation: service.NewReservationService(store.ReservationRepository, store.PropertyCatalog, cfg.QuotaLimits()),
	}
	runner := jobs.NewJobRunner(store.OutboxRepository, jobServices, publisher, cfg)

	cleanup := func() {
		publisher.Close()
		db.Close()
	}
	return runner, cleanup, nil
}

func serve(runner *jobs.JobRunner) error {
	cronScheduler := scheduler.NewScheduler(runner)
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
	return nil
}
