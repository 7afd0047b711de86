package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/demo-credit-wallet/internal/archiver/consumer"
	"github.com/demo-credit-wallet/internal/archiver/outbox_poller"
	"github.com/demo-credit-wallet/internal/archiver/service"
	"github.com/demo-credit-wallet/internal/config"
	"github.com/demo-credit-wallet/internal/data/mongo"
	"github.com/demo-credit-wallet/internal/data/postgres"
	"github.com/demo-credit-wallet/internal/logger"
	"github.com/demo-credit-wallet/internal/platform/messaging/consumers"
	"github.com/demo-credit-wallet/internal/platform/messaging/producers"
	"github.com/demo-credit-wallet/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_archiver")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Archiver",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	archiveRepo := mongo.NewArchiveRepository(log, mongoDB.Database())

	// Initialize Kafka producer for the wallet events topic
	eventProducer, err := producers.NewWalletEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize wallet event producer", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize archiving service behind a bounded worker pool
	archiveService := service.NewArchiveService(log, archiveRepo)
	workerPoolService, err := service.NewWorkerPoolArchivingService(
		archiveService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize wallet event handler
	eventHandler := consumer.NewWalletEventHandler(log, workerPoolService, dlqProducer)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(outboxRepo, eventProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.EventsTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.EventsTopic, cfg.Kafka.ConsumerGroup, eventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool
	workerPoolService.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close Kafka producers and consumer
	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing wallet event producer", "error", err)
	}
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Ledger Archiver shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Ledger Archiver shutdown completed with errors")
	} else {
		log.Info("Ledger Archiver shutdown completed successfully")
	}
}
