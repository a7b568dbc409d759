package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/finance-service/internal/application/usecase"
	"github.com/bibbank/finance-service/internal/infrastructure/config"
	"github.com/bibbank/finance-service/internal/infrastructure/kafka"
	"github.com/bibbank/finance-service/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/finance-service/internal/infrastructure/scheduler"
	grpcPresentation "github.com/bibbank/finance-service/internal/presentation/grpc"
	"github.com/bibbank/finance-service/internal/presentation/rest"
	"github.com/bibbank/finance-service/pkg/auth"
	pkgkafka "github.com/bibbank/finance-service/pkg/kafka"
	"github.com/bibbank/finance-service/pkg/money"
	"github.com/bibbank/finance-service/pkg/observability"
	pkgpostgres "github.com/bibbank/finance-service/pkg/postgres"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("finance-service stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("finance-service stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("starting finance-service",
		"version", version,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		CAFile:         cfg.Tracing.CAFile,
		SampleRatio:    1,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return err
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck
	metrics, err := usecase.NewMetrics(meterProvider.Meter("github.com/bibbank/finance-service"))
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Database.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()
	pool, err := pkgpostgres.NewPool(dbCtx, pkgpostgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		MaxConns: cfg.DB.MaxConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := pkgpostgres.RunMigrations(cfg.DB.DSN(), postgres.Migrations, postgres.MigrationsDir); err != nil {
		return err
	}

	// Kafka.
	kafkaCfg := pkgkafka.Config{Brokers: cfg.Kafka.Brokers, ConsumerGroup: cfg.Kafka.ConsumerGroup}
	producer, err := pkgkafka.NewProducer(kafkaCfg)
	if err != nil {
		return err
	}
	defer func() { _ = producer.Close() }() //nolint:errcheck

	periods := postgres.NewPeriodRepo(pool)
	ledgerConsumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.LedgerTopic,
		kafka.NewLedgerEventHandler(periods, logger).Handle, logger)
	if err != nil {
		return err
	}
	defer func() { _ = ledgerConsumer.Close() }() //nolint:errcheck

	eventPublisher := kafka.NewEventPublisher(producer, cfg.Kafka.EventsTopic, logger)
	outbox := postgres.NewOutboxRepo(pool)
	relay := kafka.NewOutboxRelay(outbox, eventPublisher, cfg.Outbox.Interval, cfg.Outbox.BatchSize, logger)

	// Use cases.
	deps := usecase.Dependencies{
		Owners:             postgres.NewOwnerRepo(pool),
		Publisher:          eventPublisher,
		Outbox:             outbox,
		Journal:            kafka.NewJournalPoster(producer, cfg.Kafka.PostingsTopic, logger),
		Periods:            periods,
		Rates:              postgres.NewExchangeRateRepo(pool),
		FunctionalCurrency: money.MustCurrency(cfg.FunctionalCurrency),
		Locks:              usecase.NewOwnerLocks(),
		Metrics:            metrics,
		Logger:             logger,
	}
	depreciation := usecase.NewRunDepreciationUseCase(deps, cfg.Depreciation.Workers)
	cronJob, err := scheduler.NewDepreciationScheduler(cfg.Depreciation.Cron, depreciation, logger)
	if err != nil {
		return err
	}

	// Servers.
	validator, err := auth.NewValidator(auth.ValidatorConfig{
		PublicKeyPEM: cfg.Auth.PublicKeyPEM,
		Secret:       cfg.Auth.Secret,
		Issuer:       cfg.Auth.Issuer,
	})
	if err != nil {
		return err
	}
	handler := grpcPresentation.NewFinanceHandler(grpcPresentation.NewUseCases(deps, depreciation), logger)
	grpcServer, err := grpcPresentation.NewServer(handler, validator, cfg.GRPC, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	rest.NewHealthHandler(pool, metricsHandler, logger).RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           otelhttp.NewHandler(mux, "finance-http"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return ledgerConsumer.Start(gctx) })
	g.Go(func() error { return cronJob.Start(gctx) })
	g.Go(func() error { return relay.Start(gctx) })

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		grpcServer.GracefulStop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
