package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/demo-credit-wallet/internal/api"
	"github.com/demo-credit-wallet/internal/api/service"
	"github.com/demo-credit-wallet/internal/auth"
	"github.com/demo-credit-wallet/internal/config"
	"github.com/demo-credit-wallet/internal/data/memory"
	"github.com/demo-credit-wallet/internal/data/postgres"
	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/engine"
	"github.com/demo-credit-wallet/internal/logger"
	"github.com/demo-credit-wallet/internal/platform/persistence"
	"github.com/demo-credit-wallet/internal/reputation"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("wallet_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Wallet API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"storage_backend", cfg.Storage.Backend,
	)

	// Initialize the selected storage backend
	var (
		uow           engine.UnitOfWork
		accountRepo   account.Repository
		accountReader engine.AccountReader
		ledgerRepo    ledger.Repository
		postgresDB    *persistence.PostgresDB
	)

	switch cfg.Storage.Backend {
	case config.StorageBackendPostgres:
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Error("Failed to initialize PostgreSQL", "error", err)
			os.Exit(1)
		}

		accounts := postgres.NewAccountRepository(log, postgresDB)
		entries := postgres.NewLedgerRepository(log, postgresDB)
		outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

		uow = postgres.NewUnitOfWork(postgresDB, accounts, entries, outboxRepo)
		accountRepo = accounts
		accountReader = accounts
		ledgerRepo = entries

	case config.StorageBackendMemory:
		// Single-process backend for local development; no outbox pipeline
		store := memory.NewStore()
		uow = store
		accountRepo = store
		accountReader = store
		ledgerRepo = store

	default:
		log.Error("Unknown storage backend", "backend", cfg.Storage.Backend)
		os.Exit(1)
	}

	// Initialize services
	authenticator := auth.NewTokenAuthenticator(cfg.Auth.Tokens)
	karmaChecker := reputation.NewKarmaChecker(log, &cfg.Karma)

	ledgerService := engine.New(uow, accountReader, ledgerRepo, log)
	userService := service.NewUserService(log, accountRepo, karmaChecker)

	// Initialize REST server
	server := api.NewServer(log, cfg, authenticator, ledgerService, userService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Shutdown postgres connection pool
	if postgresDB != nil {
		postgresDB.Close()
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
