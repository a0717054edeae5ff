package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/retreat/backend/internal/application/ledger"
	"github.com/retreat/backend/internal/application/reconcile"
	"github.com/retreat/backend/internal/domain/pricing"
	"github.com/retreat/backend/internal/infrastructure/cache"
	"github.com/retreat/backend/internal/infrastructure/config"
	"github.com/retreat/backend/internal/infrastructure/logger"
	"github.com/retreat/backend/internal/infrastructure/persistence"
	"github.com/retreat/backend/internal/infrastructure/sources"
	"github.com/retreat/backend/internal/infrastructure/telemetry"
	"github.com/retreat/backend/internal/interfaces/http/handler"
	"github.com/retreat/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.ForEnvironment(cfg.App.Env, cfg.Log.Level)
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting retreat ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if level, err := logger.ParseLevel(logCfg.Level); err == nil {
		log = logsProvider.Bridge(log, level)
	}

	metrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:  meterProvider.Meter("retreat-ledger"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.SlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTracingEnabled,
		LogFullSQL:      cfg.Telemetry.LogFullSQL,
		SlowQueryThresh: cfg.Telemetry.SlowQueryThresh,
		DBSystem:        db.Driver,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	service := ledgerapp.NewLedgerService(
		persistence.NewGormExpenseRecordRepository(db.DB),
		persistence.NewGormIncomeRecordRepository(db.DB),
		ledgerapp.WithLogger(log),
		ledgerapp.WithBatchSize(cfg.Import.BatchSize),
		ledgerapp.WithMetrics(metrics),
	)

	reservations := persistence.NewGormReservationSource(db.DB)
	allocations := reservations.Sources()
	switch cfg.Import.ItemSource {
	case "csv":
		allocations.Supplies = sources.NewCSVItemSource(cfg.Import.CSVDir, sources.KindSupplies, log)
		allocations.Others = sources.NewCSVItemSource(cfg.Import.CSVDir, sources.KindOthers, log)
		log.Info("Reading supply and other-cost items from CSV", zap.String("dir", cfg.Import.CSVDir))
	case "s3":
		client, err := sources.NewS3Client(ctx, &cfg.Storage)
		if err != nil {
			log.Fatal("Failed to create object storage client", zap.Error(err))
		}
		allocations.Supplies = sources.NewS3ItemSource(client, cfg.Storage.Bucket, cfg.Storage.Prefix, sources.KindSupplies, log)
		allocations.Others = sources.NewS3ItemSource(client, cfg.Storage.Bucket, cfg.Storage.Prefix, sources.KindOthers, log)
		log.Info("Reading supply and other-cost items from object storage",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("prefix", cfg.Storage.Prefix))
	}

	pricingCfg := cfg.Pricing.CalculatorConfig()
	reconciler := reconcile.NewReconciler(allocations, service, pricing.NewCalculator(pricingCfg),
		reconcile.WithLogger(log),
		reconcile.WithMetrics(metrics),
		reconcile.WithOperationGuard(service.Guard()),
	)

	sessions := cache.NewDedupSessionFactory(cfg.Import, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	if err := sessions.Connect(); err != nil {
		log.Fatal("Failed to connect dedup store", zap.Error(err))
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Error("Error closing dedup store", zap.Error(err))
		}
	}()

	mode := "debug"
	if cfg.App.Env == "production" {
		mode = "release"
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Mode:           mode,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, log, router.Handlers{
		Ledger:   handler.NewLedgerHandler(service),
		Discount: handler.NewDiscountHandler(service),
		Import:   handler.NewImportHandler(reconciler, sessions, allocations.Lodging, pricingCfg, cfg.Pricing.DefaultCostBasis),
		System:   handler.NewSystemHandler(db, sessions.Backend()),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

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

	// exporters flush in parallel; any of them may block on an unreachable collector
	var g errgroup.Group
	g.Go(func() error { return tracerProvider.Shutdown(shutdownCtx) })
	g.Go(func() error { return meterProvider.Shutdown(shutdownCtx) })
	g.Go(func() error { return logsProvider.Shutdown(shutdownCtx) })
	if err := g.Wait(); err != nil {
		log.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
