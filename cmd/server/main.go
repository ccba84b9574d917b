package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	invoiceapp "github.com/fincore/backend/internal/application/invoice"
	ledgerapp "github.com/fincore/backend/internal/application/ledger"
	orderapp "github.com/fincore/backend/internal/application/order"
	paymentapp "github.com/fincore/backend/internal/application/payment"
	reconciliationapp "github.com/fincore/backend/internal/application/reconciliation"
	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/infrastructure/cache"
	"github.com/fincore/backend/internal/infrastructure/config"
	"github.com/fincore/backend/internal/infrastructure/event"
	"github.com/fincore/backend/internal/infrastructure/gateway"
	"github.com/fincore/backend/internal/infrastructure/logger"
	"github.com/fincore/backend/internal/infrastructure/persistence"
	"github.com/fincore/backend/internal/infrastructure/scheduler"
	"github.com/fincore/backend/internal/interfaces/http/handler"
	"github.com/fincore/backend/internal/interfaces/http/middleware"
	"github.com/fincore/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Financial Core",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	orderRepo := persistence.NewGormFinancialOrderRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Transaction manager for multi-aggregate writes
	txManager := persistence.NewGormTxManager(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(db.DB, eventSerializer)

	// Idempotency store: Redis when enabled, in-memory otherwise
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		idempotencyStore = redisStore
		log.Info("Using Redis idempotency store",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("Using in-memory idempotency store")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	idemConfig := shared.IdempotencyConfig{
		TTL:     cfg.Event.IdempotencyTTL,
		Enabled: true,
	}

	// Payment gateway: Stripe in real deployments, fake for local development
	var paymentGateway payment.Gateway
	switch cfg.Gateway.Provider {
	case "stripe":
		paymentGateway, err = gateway.NewStripeGateway(cfg.Gateway.StripeAPIKey, log)
		if err != nil {
			log.Fatal("Failed to initialize stripe gateway", zap.Error(err))
		}
		log.Info("Using Stripe payment gateway")
	default:
		paymentGateway = gateway.NewFakeGateway()
		log.Warn("Using fake payment gateway, do not use in production")
	}

	// Initialize application services
	ledgerService := ledgerapp.NewService(ledgerRepo, accountRepo, transactionRepo, outboxPublisher, txManager, log)
	orderService := orderapp.NewService(orderRepo, refundRepo, ledgerRepo, ledgerService, outboxPublisher, txManager, log)
	paymentService := paymentapp.NewService(paymentRepo, orderService, paymentGateway, idempotencyStore, idemConfig, outboxPublisher, txManager, log)
	voidPolicy := invoice.VoidPolicyStrict
	if cfg.Billing.VoidPolicy == "lenient" {
		voidPolicy = invoice.VoidPolicyLenient
	}
	invoiceService := invoiceapp.NewService(invoiceRepo, ledgerRepo, ledgerService, outboxPublisher, txManager, voidPolicy, log)
	reconciliationService := reconciliationapp.NewService(ledgerRepo, accountRepo, transactionRepo, orderRepo, invoiceRepo, reportRepo, log)
	webhookService := paymentapp.NewWebhookService(paymentService, cfg.Gateway.StripeWebhookSecret, log)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Order payment settled -> mark linked invoices paid.
	// The wrapper dedupes redelivered events so invoices are settled once.
	orderPaidHandler := invoiceapp.NewOrderPaidHandler(invoiceRepo, orderRepo, outboxPublisher, txManager, log)
	idempotentOrderPaid := event.NewIdempotentHandler(
		orderPaidHandler,
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(idemConfig),
	)
	eventBus.Subscribe(idempotentOrderPaid)

	log.Info("Event handlers registered",
		zap.Strings("order_paid_events", orderPaidHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  time.Hour,
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxProcessorConfig.BatchSize),
			zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
		)
	}

	// Initialize reconciliation scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.ReconciliationSchedulerConfig{
			Enabled:       cfg.Scheduler.Enabled,
			SweepInterval: cfg.Scheduler.SweepInterval,
			SweepTimeout:  cfg.Scheduler.SweepTimeout,
			InitialDelay:  cfg.Scheduler.InitialDelay,
			AlertOnDrift:  cfg.Scheduler.AlertOnDrift,
		}
		reconciliationScheduler := scheduler.NewReconciliationScheduler(reconciliationService, log, schedulerConfig)
		if err := reconciliationScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := reconciliationScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping reconciliation scheduler", zap.Error(err))
			}
		}()
		log.Info("Reconciliation scheduler started",
			zap.Duration("sweep_interval", cfg.Scheduler.SweepInterval),
			zap.Duration("sweep_timeout", cfg.Scheduler.SweepTimeout),
		)
	}

	// Initialize HTTP handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)
	stripeWebhookHandler := handler.NewStripeWebhookHandler(webhookService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Provider webhook endpoint. Authenticated by signature, so it stays
	// outside the tenant-guarded API group.
	engine.POST("/api/v1/webhooks/stripe", stripeWebhookHandler.HandleStripeWebhook)

	// Tenant-scoped API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(ledgerHandler).
		Register(orderHandler).
		Register(paymentHandler).
		Register(invoiceHandler).
		Register(reconciliationHandler)
	r.Setup(middleware.RequireTenant())

	// Create HTTP server with config
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
