package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/barneeyyu/library-server/internal/api/http"
	"github.com/barneeyyu/library-server/internal/config"
	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/policy"
	"github.com/barneeyyu/library-server/internal/repository"
	"github.com/barneeyyu/library-server/internal/repository/memory"
	"github.com/barneeyyu/library-server/internal/repository/postgres"
	"github.com/barneeyyu/library-server/internal/retry"
	"github.com/barneeyyu/library-server/internal/security"
	"github.com/barneeyyu/library-server/internal/service"
	"github.com/barneeyyu/library-server/internal/telemetry"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	storeKind := flag.String("store", "postgres", "Storage backend: 'postgres' or 'memory' (seeded demo data)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Library Circulation Server...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "store", *storeKind)
	logger.Info("Loan configuration", "period_months", cfg.Loan.PeriodMonths, "due_soon_days", cfg.Loan.DueSoonDays, "limits", cfg.Limits)

	ctx := context.Background()

	// Initialize Tracing
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		logger.Error("Failed to set up tracing", "error", err)
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	// Initialize Store
	var store repository.Store
	switch *storeKind {
	case "postgres":
		db, err := openDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		store = postgres.NewStore(db)
	case "memory":
		mem, err := memory.NewStore()
		if err != nil {
			log.Fatalf("Failed to create in-memory store: %v", err)
		}
		if err := seedDemo(mem); err != nil {
			log.Fatalf("Failed to seed in-memory store: %v", err)
		}
		logger.Warn("Using in-memory store; data is lost on exit")
		store = mem
	default:
		log.Fatalf("Unknown store type '%s'", *storeKind)
	}

	// Initialize Services
	borrowSvc := service.NewBorrowService(
		store,
		policy.NewLimitPolicy(cfg.LimitCaps()),
		service.LoanSettings{PeriodMonths: cfg.Loan.PeriodMonths, DueSoonDays: cfg.Loan.DueSoonDays},
		time.Now,
	)
	scannerSvc := service.NewScannerService(store.Repositories().Loans, cfg.Loan.DueSoonDays, time.Now)
	notificationSvc := service.NewNotificationService(scannerSvc, newNotifier(cfg))

	// Initialize HTTP layer
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	handler := httpapi.NewBorrowHandler(borrowSvc, scannerSvc, notificationSvc,
		retry.WithMaxAttempts(cfg.Retry.MaxAttempts),
		retry.WithBaseDelay(time.Duration(cfg.Retry.BaseDelayMS)*time.Millisecond),
		retry.WithJitterFactor(cfg.Retry.JitterFactor),
	)
	router := httpapi.NewRouter(
		handler,
		httpapi.NewAuthMiddleware(tokenManager),
		httpapi.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	)

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Tracing shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, err
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		db.Close()
		return nil, err
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(db); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			db.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}
	return db, nil
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

// seedDemo loads a small catalog for -store=memory.
func seedDemo(s *memory.Store) error {
	borrowers := []domain.Borrower{
		{ID: 1, Name: "Ada Lovelace", Email: "ada@library.local", Role: domain.RoleMember},
		{ID: 2, Name: "Alan Turing", Email: "alan@library.local", Role: domain.RoleMember},
		{ID: 3, Name: "Grace Hopper", Email: "grace@library.local", Role: domain.RoleLibrarian},
	}
	for _, b := range borrowers {
		if err := s.AddBorrower(b); err != nil {
			return err
		}
	}
	branches := []domain.Branch{
		{ID: 1, Name: "Central", Address: "1 Main St", Active: true},
		{ID: 2, Name: "Riverside", Address: "8 Quay Rd", Active: true},
	}
	for _, b := range branches {
		if err := s.AddBranch(b); err != nil {
			return err
		}
	}
	books := []domain.Book{
		{ID: 1, Title: "The Go Programming Language", Author: "Donovan & Kernighan", Category: domain.CategoryBook},
		{ID: 2, Title: "Designing Data-Intensive Applications", Author: "Kleppmann", Category: domain.CategoryBook},
		{ID: 3, Title: "National Geographic", Author: "Various", Category: domain.CategoryMagazine},
	}
	for _, b := range books {
		if err := s.AddBook(b); err != nil {
			return err
		}
	}
	records := []domain.InventoryRecord{
		{ID: 1, BookID: 1, BranchID: 1, TotalCopies: 3, AvailableCopies: 3, Status: domain.CopyStatusActive},
		{ID: 2, BookID: 1, BranchID: 2, TotalCopies: 1, AvailableCopies: 1, Status: domain.CopyStatusActive},
		{ID: 3, BookID: 2, BranchID: 1, TotalCopies: 2, AvailableCopies: 2, Status: domain.CopyStatusActive},
		{ID: 4, BookID: 3, BranchID: 1, TotalCopies: 5, AvailableCopies: 5, Status: domain.CopyStatusActive},
	}
	for _, r := range records {
		if err := s.AddInventory(r); err != nil {
			return err
		}
	}
	return nil
}
