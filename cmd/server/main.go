package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	checkoutapp "github.com/marketplace/backend/internal/application/checkout"
	commissionapp "github.com/marketplace/backend/internal/application/commission"
	eventapp "github.com/marketplace/backend/internal/application/event"
	"github.com/marketplace/backend/internal/application/subscriber"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/inventory"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/payment"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/resilience"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Marketplace Backend API
//	@version		1.0
//	@description	Multi-seller checkout and commission API
//	@BasePath		/api/v1

const (
	version = "1.0.0"

	// statements longer than this are truncated in logs unless full SQL logging is on
	maxLoggedSQL = 1024
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// Telemetry: traces, metrics and the zap to OTel log bridge
	otelProviders, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:       serviceName,
		ServiceVersion:    version,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		TracesEnabled:     cfg.Telemetry.Enabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = otelProviders.BridgeLogger(log, serviceName, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting marketplace backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormOpts := []logger.GormLoggerOption{
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithIgnoreRecordNotFoundError(true),
	}
	if !cfg.Telemetry.DBLogFullSQL {
		gormOpts = append(gormOpts, logger.WithMaxSQLLength(maxLoggedSQL))
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	meter := otelProviders.Meter(serviceName)
	metrics, err := telemetry.NewCheckoutMetrics(meter)
	if err != nil {
		log.Warn("Checkout metrics unavailable", zap.Error(err))
	}
	if err := db.RegisterPoolMetrics(meter); err != nil {
		log.Warn("Database pool metrics unavailable", zap.Error(err))
	}

	stores, err := cache.NewStores(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize cache stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing cache stores", zap.Error(err))
		}
	}()

	// Repositories
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	sellerRepo := persistence.NewGormSellerRepository(db.DB)
	linkStore := persistence.NewGormLinkStore(db.DB)
	journal := persistence.NewGormSagaJournal(db.DB)
	ruleStore := persistence.NewGormCommissionRuleStore(db.DB)
	lineRepo := persistence.NewGormCommissionLineRepository(db.DB)

	// External collaborators behind breakers
	if cfg.Checkout.PaymentProviderID != payment.SystemProviderID {
		log.Fatal("Unsupported payment provider", zap.String("provider_id", cfg.Checkout.PaymentProviderID))
	}
	paymentProvider := payment.NewSystemProvider(breakerSettings("payment."+payment.SystemProviderID, cfg.Checkout.PaymentTimeout, cfg.Checkout), log)
	inventoryService := inventory.NewGormInventoryService(db.DB, breakerSettings("inventory", cfg.Checkout.InventoryTimeout, cfg.Checkout), log)

	// Event bus with retries; exhausted deliveries are logged and counted
	eventBus := event.NewAsyncEventBus(log,
		event.WithRetry(cfg.Event.BusMaxAttempts, cfg.Event.BusBaseBackoff),
		event.WithFailureHook(func(ctx context.Context, sub string, evt shared.DomainEvent, err error) {
			log.Error("Subscriber gave up on event",
				zap.String("subscriber", sub),
				zap.String("event_type", evt.EventType()),
				zap.String("event_id", evt.EventID().String()),
				zap.Error(err),
			)
			if metrics != nil {
				metrics.RecordSubscriberFailure(ctx, sub, evt.EventType())
			}
		}),
	)

	commissionService := commissionapp.NewService(orderRepo, ruleStore, lineRepo, log)
	if metrics != nil {
		commissionService.SetMetrics(metrics)
	}

	registry := subscriber.NewRegistry(subscriber.Deps{
		Commission: commissionService,
		Reindex:    stores.Reindex,
		Logger:     log,
	}, log, subscriber.Defaults(),
		subscriber.WithIdempotency(stores.Idempotency, cfg.Commission.IdempotencyTTL),
		subscriber.WithTimeout(cfg.Commission.SubscriberTimeout),
	)
	registry.Attach(eventBus)
	log.Info("Event subscribers registered", zap.Strings("subscribers", registry.Names()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Event.ShutdownTimeout)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Checkout publishes straight to the bus, or to the outbox when the relay is enabled
	var publisher shared.EventPublisher = eventBus
	var outboxHandler *handler.OutboxHandler
	if cfg.Event.OutboxEnabled {
		serializer := event.NewEventSerializer()
		event.RegisterCheckoutEvents(serializer)
		outboxPublisher := event.NewOutboxPublisher(db.DB, serializer)
		outboxPublisher.SetMaxRetries(cfg.Event.MaxRetries)
		publisher = outboxPublisher

		outboxRepo := event.NewGormOutboxRepository(db.DB)
		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Event.BatchSize
		processorConfig.PollInterval = cfg.Event.PollInterval
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		processor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorConfig, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		// Registered after the bus so the relay stops first
		defer func() {
			if err := processor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
		outboxHandler = handler.NewOutboxHandler(eventapp.NewOutboxService(outboxRepo, log))
	}

	checkoutOpts := []checkoutapp.Option{
		checkoutapp.WithJournal(journal),
		checkoutapp.WithSagaTimeout(cfg.Checkout.SagaTimeout),
	}
	if metrics != nil {
		checkoutOpts = append(checkoutOpts, checkoutapp.WithMetrics(metrics))
	}
	checkoutService := checkoutapp.NewService(checkoutapp.Dependencies{
		Carts:     cartRepo,
		Orders:    orderRepo,
		Sellers:   sellerRepo,
		Links:     linkStore,
		Inventory: inventoryService,
		Payments:  paymentProvider,
		Events:    publisher,
	}, log, checkoutOpts...)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.EngineConfig{
		ServiceName:    serviceName,
		TracingEnabled: otelProviders.TracesEnabled(),
		MetricsEnabled: otelProviders.MetricsEnabled(),
		Meter:          meter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           middleware.DefaultCORSConfig(),
	}, log, router.Handlers{
		System: handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
			"database": db.Ping,
			"redis":    stores.Ping,
		}),
		Checkout:   handler.NewCheckoutHandler(checkoutService),
		Commission: handler.NewCommissionHandler(commissionService),
		Outbox:     outboxHandler,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func breakerSettings(name string, timeout time.Duration, cfg config.CheckoutConfig) resilience.Settings {
	s := resilience.DefaultSettings(name)
	s.Timeout = timeout
	s.MaxFailures = cfg.BreakerMaxFailures
	s.OpenTimeout = cfg.BreakerOpenTimeout
	return s
}
