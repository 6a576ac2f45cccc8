package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/barneeyyu/library-server/internal/config"
	"github.com/barneeyyu/library-server/internal/jobs"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/repository/postgres"
	"github.com/barneeyyu/library-server/internal/scheduler"
	"github.com/barneeyyu/library-server/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'send-due-soon-notices', 'report-overdue-loans', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Library Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	scannerService := service.NewScannerService(store.Repositories().Loans, cfg.Loan.DueSoonDays, time.Now)
	notificationService := service.NewNotificationService(scannerService, newNotifier(cfg))

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(notificationService, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

func newNotifier(cfg *config.Config) service.Notifier {
	n := cfg.Notification
	switch n.Provider {
	case "sendgrid":
		return service.NewSendGridNotifier(n.SendGridAPIKey, n.FromEmail, n.FromName)
	case "smtp":
		return service.NewSMTPNotifier(n.SMTPHost, n.SMTPPort, n.SMTPUser, n.SMTPPassword, n.FromEmail)
	default:
		return service.NewLogNotifier()
	}
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "send-due-soon-notices":
		jobRunner.SendDueSoonNotices()
	case "report-overdue-loans":
		jobRunner.ReportOverdueLoans()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - send-due-soon-notices\n")
		fmt.Printf("  - report-overdue-loans\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
