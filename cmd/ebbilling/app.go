package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/septivank/eb-billing/internal/anomaly"
	"github.com/septivank/eb-billing/internal/config"
	"github.com/septivank/eb-billing/internal/console"
	"github.com/septivank/eb-billing/internal/db"
	"github.com/septivank/eb-billing/internal/mq"
	"github.com/septivank/eb-billing/internal/repository"
	"github.com/septivank/eb-billing/internal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errBrokerNotConfigured = errors.New("RABBITMQ_URL is not set")

// newApp builds the fx application shared by every command
func newApp(opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.WithLogger(newFxLogger),
		fx.Provide(
			config.Load,
			newLogger,
			ProvideStore,
			ProvideAnomalyDetector,
			ProvidePublisher,
			ProvideRecordService,
			ProvideBillingService,
			ProvideIngestService,
			ProvideMenu,
		),
	}
	return fx.New(append(base, opts...)...)
}

// ProvideStore opens PostgreSQL when DATABASE_URL is a postgres:// URL and a SQLite file otherwise.
// Tables are created when the application starts.
func ProvideStore(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (repository.Store, error) {
	var store repository.Store

	if cfg.Database.IsPostgres() {
		pool, err := db.NewPool(lc, logger, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		store = repository.NewPostgresRepository(pool)
	} else {
		conn, err := db.OpenSQLite(lc, logger, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		store = repository.NewSQLiteRepository(conn, logger)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.CreateSchema(ctx); err != nil {
				logger.Error("failed to create schema", zap.Error(err))
				return err
			}
			return nil
		},
	})

	return store, nil
}

// ProvideAnomalyDetector creates a new anomaly detector instance
func ProvideAnomalyDetector(cfg *config.Config) *anomaly.Detector {
	return anomaly.NewDetector(cfg.Anomaly.SpikeThreshold, cfg.Anomaly.MinDataPointsForDetection)
}

// ProvidePublisher publishes bill events to RabbitMQ, or discards them when no broker is configured
func ProvidePublisher(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (service.BillPublisher, error) {
	if !cfg.RabbitMQ.Enabled() {
		logger.Info("rabbitmq not configured, bill events disabled")
		return service.NopPublisher{}, nil
	}

	conn, err := mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.BillingExchange, cfg.RabbitMQ.BillRoutingKey, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}

// ProvideRecordService creates a new record service instance
func ProvideRecordService(store repository.Store, logger *zap.Logger) *service.RecordService {
	return service.NewRecordService(store, logger)
}

// ProvideBillingService creates a new billing service instance
func ProvideBillingService(
	store repository.Store,
	detector *anomaly.Detector,
	publisher service.BillPublisher,
	logger *zap.Logger,
) *service.BillingService {
	return service.NewBillingService(store, detector, publisher, logger)
}

// ProvideIngestService creates a new ingest service instance
func ProvideIngestService(records *service.RecordService, logger *zap.Logger) *service.IngestService {
	return service.NewIngestService(records, logger)
}

// ProvideMenu creates the operator menu on the process terminal
func ProvideMenu(records *service.RecordService, billing *service.BillingService, logger *zap.Logger) *console.Menu {
	return console.NewMenu(records, billing, os.Stdin, os.Stdout, logger)
}

func startIngest(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *zap.Logger,
	ingest *service.IngestService,
) (*mq.Consumer, error) {
	if !cfg.RabbitMQ.Enabled() {
		return nil, fmt.Errorf("ingest needs a broker: %w", errBrokerNotConfigured)
	}

	conn, err := mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	// Cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:    conn,
		Exchange:      cfg.RabbitMQ.IngestExchange,
		Queue:         cfg.RabbitMQ.IngestQueue,
		RoutingKey:    cfg.RabbitMQ.IngestRoutingKey,
		DLQQueue:      cfg.RabbitMQ.DLQQueue,
		PrefetchCount: cfg.RabbitMQ.PrefetchCount,
		Logger:        logger,
		Handler:       ingest.ProcessMessage,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting reading consumer",
				zap.String("queue", cfg.RabbitMQ.IngestQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			return consumer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close consumer", zap.Error(err))
				return err
			}
			logger.Info("reading consumer stopped")
			return nil
		},
	})

	return consumer, nil
}
