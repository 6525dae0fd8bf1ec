/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Award Engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment), then apply flags
  2. Initialize structured logger
  3. Initialize SQLite store
  4. Seed allowance rules when the store has none
  5. Create roster service, SLA monitor and API handler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  See config/config.go. Award thresholds, allowance rates, SLA hours and the
  optional AWARD_RULES_FILE / ALLOWANCES_FILE are read from the environment.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the SLA monitor and close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/awards.db"

  # Run with in-memory database on a different port
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - roster/service.go: Submission and approval orchestration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/warp/award-engine/api"
	"github.com/warp/award-engine/config"
	"github.com/warp/award-engine/roster"
	"github.com/warp/award-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	flag.Parse()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, *port, *dbPath, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.IsDevelopment())

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.App.LogLevel))); err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "award-engine"),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)
}

func run(cfg *config.Config, port int, dbPath string, logger *slog.Logger) error {
	ctx := context.Background()

	jurisdiction, err := cfg.Jurisdiction()
	if err != nil {
		return fmt.Errorf("failed to load jurisdiction rules: %w", err)
	}

	// Initialize store
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Initialize service
	svc := roster.NewService(store, logger)
	svc.Jurisdiction = jurisdiction
	svc.SLA = cfg.SLAPolicy()
	svc.DirectorPayThreshold = cfg.Award.DirectorPayThreshold

	if err := seedAllowances(ctx, cfg, svc, logger); err != nil {
		return err
	}

	monitor := roster.NewSLAMonitor(svc)
	monitor.CheckInterval = cfg.Award.SLACheckInterval
	monitor.Start()
	defer monitor.Stop()

	// Initialize handler and router
	handler := api.NewHandler(svc, logger)
	handler.Ping = store.Ping
	router := api.NewRouter(handler, logger)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", port, "db", dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// seedAllowances stores the configured allowance rules on first start.
// Existing rules are never overwritten.
func seedAllowances(ctx context.Context, cfg *config.Config, svc *roster.Service, logger *slog.Logger) error {
	existing, err := svc.AllowanceRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to list allowance rules: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	rules, err := cfg.Allowances()
	if err != nil {
		return fmt.Errorf("failed to load allowance rules: %w", err)
	}
	for _, rule := range rules {
		if _, err := svc.SaveAllowanceRule(ctx, rule, "system"); err != nil {
			return fmt.Errorf("failed to seed allowance rule %s: %w", rule.ID, err)
		}
	}
	logger.Info("allowance rules seeded", "count", len(rules))
	return nil
}
