package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gym-ops-api/api/swagger"
	"github.com/noah-isme/gym-ops-api/internal/collector"
	"github.com/noah-isme/gym-ops-api/internal/handler"
	"github.com/noah-isme/gym-ops-api/internal/middleware"
	"github.com/noah-isme/gym-ops-api/internal/notify"
	"github.com/noah-isme/gym-ops-api/internal/repository"
	"github.com/noah-isme/gym-ops-api/internal/service"
	"github.com/noah-isme/gym-ops-api/pkg/cache"
	"github.com/noah-isme/gym-ops-api/pkg/config"
	"github.com/noah-isme/gym-ops-api/pkg/database"
	"github.com/noah-isme/gym-ops-api/pkg/export"
	"github.com/noah-isme/gym-ops-api/pkg/jobs"
	"github.com/noah-isme/gym-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gym-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gym-ops-api/pkg/middleware/requestid"
)

// @title Gym Ops API
// @version 1.0.0
// @description Event validation, monthly compliance and portal collection for a gym franchise.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey AdminSession
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logr.Warn("unknown timezone, falling back to UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}
	now := func() time.Time { return time.Now().In(loc) }

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, compliance cache disabled", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Compliance.CacheTTL, logr, cfg.Compliance.CacheEnabled && redisClient != nil)

	validate := validator.New()
	eventRepo := repository.NewEventRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	runRepo := repository.NewCollectionRunRepository(db)

	eventSvc := service.NewEventService(eventRepo, auditRepo, cacheSvc, validate, logr)
	ruleSvc := service.NewRuleService(ruleRepo, cacheSvc, validate, logr, now)
	validationSvc := service.NewValidationService(eventRepo, ruleRepo, referenceRepo, metrics, logr, now)
	complianceSvc := service.NewComplianceService(eventRepo, ruleRepo, referenceRepo, cacheSvc, service.ComplianceConfig{CacheTTL: cfg.Compliance.CacheTTL}, logr, now)
	exportSvc := service.NewExportService(complianceSvc, logr, export.NewCSVExporter(), export.NewPDFExporter())

	adminSvc, err := service.NewAdminService(service.AdminConfig{
		PIN:           cfg.Admin.PIN,
		PINHash:       cfg.Admin.PINHash,
		SessionSecret: cfg.Admin.SessionSecret,
		SessionTTL:    cfg.Admin.SessionTTL,
	}, validate, logr)
	if err != nil {
		logr.Fatal("failed to init admin gate", zap.Error(err))
	}

	var (
		portals []collector.Portal
		filters []collector.ProgramFilter
	)
	if sources, err := collector.LoadSources(cfg.Collector.SourcesFile); err != nil {
		logr.Warn("collector sources not loaded, collection disabled", zap.String("file", cfg.Collector.SourcesFile), zap.Error(err))
	} else {
		portals = sources.HTTPPortals(collector.HTTPOptions{
			Timeout:    cfg.Collector.HTTPTimeout,
			MaxRetries: cfg.Collector.MaxRetries,
			Backoff:    cfg.Collector.Backoff,
			MaxBackoff: cfg.Collector.MaxBackoff,
		})
		filters = sources.ProgramFilters
	}

	queue := jobs.NewQueue("collector", jobs.QueueConfig{Workers: cfg.Collector.Workers, BufferSize: 4, Logger: logr})
	publisher := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.CollectionTopic, logr)
	defer publisher.Close() //nolint:errcheck

	collectorSvc := service.NewCollectorService(service.CollectorServiceOptions{
		Runs: runRepo,
		Collector: collector.New(collector.Options{
			PageSize: cfg.Collector.PageSize,
			Parallel: cfg.Collector.Parallel,
			Logger:   logr,
			Metrics:  metrics,
		}),
		Reconciler: collector.NewReconciler(referenceRepo, eventRepo, logr),
		Portals:    portals,
		Filters:    filters,
		Queue:      queue,
		Notifier:   publisher,
		Cache:      cacheSvc,
		Metrics:    metrics,
		Interval:   cfg.Collector.Interval,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	go collectorSvc.Schedule(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins}))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Admin:      handler.NewAdminHandler(adminSvc),
		Events:     handler.NewEventHandler(eventSvc),
		Rules:      handler.NewRuleHandler(ruleSvc),
		Compliance: handler.NewComplianceHandler(complianceSvc, validationSvc, exportSvc),
		Collector:  handler.NewCollectorHandler(collectorSvc),
		Metrics:    metricsHandler,
	}, middleware.AdminSession(adminSvc))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "sources", len(portals))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
