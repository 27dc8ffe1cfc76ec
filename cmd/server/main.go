package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	financeapp "github.com/amas/backend/internal/application/finance"
	partnerapp "github.com/amas/backend/internal/application/partner"
	purchaseapp "github.com/amas/backend/internal/application/purchase"
	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/infrastructure/cache"
	"github.com/amas/backend/internal/infrastructure/config"
	"github.com/amas/backend/internal/infrastructure/logger"
	"github.com/amas/backend/internal/infrastructure/persistence"
	"github.com/amas/backend/internal/infrastructure/telemetry"
	"github.com/amas/backend/internal/interfaces/http/handler"
	"github.com/amas/backend/internal/interfaces/http/middleware"
	"github.com/amas/backend/internal/interfaces/http/router"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests
const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting AMAS Pharmacy Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Idempotency store, Redis-backed with an in-memory fallback for
	// development setups without Redis
	var idempotencyStore shared.IdempotencyStore
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewMemoryIdempotencyStore()
	} else {
		defer func() {
			_ = redisClient.Close()
		}()
		idempotencyStore = cache.NewRedisIdempotencyStore(redisClient)
		log.Info("Redis connected")
	}

	// Repositories
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	returnRepo := persistence.NewGormReturnRepository(db.DB)
	payableRepo := persistence.NewGormPayableRepository(db.DB)
	paymentRepo := persistence.NewGormSupplierPaymentRepository(db.DB)

	// Domain events: received orders raise payables, approved returns
	// settle as credit
	settlement := finance.NewSettlementService()
	dispatcher := shared.NewEventDispatcher()
	dispatcher.Subscribe(financeapp.NewOrderReceivedHandler(payableRepo, supplierRepo, log))
	dispatcher.Subscribe(financeapp.NewReturnCreditHandler(
		payableRepo, paymentRepo, returnRepo, settlement, db, log))

	// Application services
	supplierService := partnerapp.NewSupplierService(supplierRepo, payableRepo, log)
	orderService := purchaseapp.NewOrderService(orderRepo, supplierRepo, db, dispatcher, log)
	returnService := purchaseapp.NewReturnService(returnRepo, orderRepo, db, dispatcher, log)
	paymentService := financeapp.NewPaymentService(
		payableRepo, paymentRepo, supplierRepo,
		settlement, db, dispatcher, idempotencyStore, log)
	debtService := financeapp.NewDebtService(payableRepo, log)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsConfig),
		middleware.Security(),
	)

	r := router.NewRouter(engine)
	r.Register(handler.NewSystemHandler(db))
	r.Register(handler.NewSupplierHandler(supplierService))
	r.Register(handler.NewPurchaseOrderHandler(orderService))
	r.Register(handler.NewPurchaseReturnHandler(returnService))
	r.Register(handler.NewPaymentHandler(paymentService))
	r.Register(handler.NewDebtHandler(debtService, cfg.Debt.OverdueThreshold()))
	r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown error", zap.Error(err))
	}

	log.Info("Stopped")
}
