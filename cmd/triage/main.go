package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"feed_triage/internal/artifact"
	"feed_triage/internal/config"
	"feed_triage/internal/publisher"
	"feed_triage/internal/service"
	"feed_triage/internal/storage"
	"feed_triage/internal/storage/postgres"
	"feed_triage/internal/storage/sqlite"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is what every subcommand runs against.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *service.TriageService
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// newApp loads the configuration and wires the stores. The publisher is only
// connected when withPublisher is set and RabbitMQ is configured.
func newApp(ctx context.Context, configPath string, withPublisher bool) (*app, error) {
	logger := setupLogger("info")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger = setupLogger(cfg.LogLevel)

	a := &app{cfg: cfg, logger: logger}

	db, err := openDB(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	logger.Debug("connected to database", "driver", cfg.Storage.Driver)

	var entries service.EntryStore
	var runs service.TrainingRunStore
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		entries = postgres.NewEntryStore(db)
		runs = postgres.NewTrainingRunStore(db)
	default:
		entries = sqlite.NewEntryStore(db)
		runs = sqlite.NewTrainingRunStore(db)
	}

	artifacts, err := artifact.NewFileStore(cfg.Triage.ArtifactDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	var pub service.Publisher
	if withPublisher && cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		a.closers = append(a.closers, rabbitMQ.Close)
		pub = rabbitMQ
	}

	a.service = service.NewTriageService(
		entries,
		runs,
		artifacts,
		config.SettingsFile{Path: cfg.Triage.SettingsPath},
		storage.NewTransactionManager(db),
		pub,
		logger,
		cfg.Triage,
	)
	return a, nil
}

func openDB(ctx context.Context, cfg config.StorageConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		return db, nil
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLite.Path)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	// stdout carries command output
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
