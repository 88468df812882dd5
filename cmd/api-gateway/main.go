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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fleet-compliance-api/api/swagger"
	"github.com/noah-isme/fleet-compliance-api/internal/handler"
	"github.com/noah-isme/fleet-compliance-api/internal/middleware"
	"github.com/noah-isme/fleet-compliance-api/internal/repository"
	"github.com/noah-isme/fleet-compliance-api/internal/service"
	"github.com/noah-isme/fleet-compliance-api/pkg/cache"
	"github.com/noah-isme/fleet-compliance-api/pkg/config"
	"github.com/noah-isme/fleet-compliance-api/pkg/database"
	"github.com/noah-isme/fleet-compliance-api/pkg/database/migrations"
	"github.com/noah-isme/fleet-compliance-api/pkg/jobs"
	"github.com/noah-isme/fleet-compliance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fleet-compliance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fleet-compliance-api/pkg/middleware/requestid"
	"github.com/noah-isme/fleet-compliance-api/pkg/storage"
)

// @title Fleet Compliance API
// @version 1.0.0
// @description Driver, vehicle and inspector compliance tracking for motor carriers
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules, err := service.NewComplianceRules(cfg.Compliance)
	if err != nil {
		logr.Fatal("invalid compliance rules", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.MigrateUp(db.DB); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	} else if err := migrations.CheckDBMigrationStatus(db.DB); err != nil {
		logr.Warn("database schema is not current", zap.Error(err))
	}

	readiness := map[string]handler.Pinger{"postgres": db}

	var cacheRepo service.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, compliance cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
			readiness["redis"] = redisPinger(client)
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	companyRepo := repository.NewCompanyRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	inspectionRepo := repository.NewInspectionRepository(db)
	inspectorRepo := repository.NewInspectorRepository(db)
	dvirRepo := repository.NewDVIRRepository(db)
	tripRepo := repository.NewTripRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	complianceSvc := service.NewComplianceService(
		rules, driverRepo, vehicleRepo, inspectionRepo, inspectorRepo,
		cacheSvc, metrics, service.ComplianceServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL}, logr,
	)
	companySvc := service.NewCompanyService(companyRepo, validate, logr)
	driverSvc := service.NewDriverService(driverRepo, companySvc, complianceSvc, cacheSvc, validate, logr)
	vehicleSvc := service.NewVehicleService(vehicleRepo, inspectionRepo, companySvc, complianceSvc, cacheSvc, validate, logr)
	inspectionSvc := service.NewInspectionService(inspectionRepo, vehicleRepo, inspectorRepo, complianceSvc, cacheSvc, validate, logr)
	inspectorSvc := service.NewInspectorService(inspectorRepo, companySvc, complianceSvc, cacheSvc, validate, logr)
	dvirSvc := service.NewDVIRService(dvirRepo, driverRepo, vehicleRepo, validate, logr)
	tripSvc := service.NewTripService(tripRepo, driverRepo, vehicleRepo, complianceSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, companySvc, validate, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	store, err := newExportStore(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(complianceSvc, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr)

	worker := service.NewReportWorker(reportRepo, exportSvc, metrics, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	if cfg.Reports.Enabled {
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	} else {
		logr.Info("report workers disabled")
	}

	notifierSvc := service.NewNotifierService(notificationRepo, complianceSvc, metrics, logr)
	if cfg.Notifier.Enabled {
		notifierQueue := jobs.NewQueue(service.NotifierQueue, notifierSvc.Handle, jobs.QueueConfig{
			Workers:    1,
			MaxRetries: 1,
			RetryDelay: time.Minute,
			Logger:     logr,
		})
		notifierQueue.Start(ctx)
		defer notifierQueue.Stop()
		notifierSvc.Schedule(ctx, notifierQueue, cfg.Notifier.Interval)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, readiness)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Companies:     handler.NewCompanyHandler(companySvc),
		Drivers:       handler.NewDriverHandler(driverSvc),
		Vehicles:      handler.NewVehicleHandler(vehicleSvc),
		Inspections:   handler.NewInspectionHandler(inspectionSvc),
		Inspectors:    handler.NewInspectorHandler(inspectorSvc),
		DVIRs:         handler.NewDVIRHandler(dvirSvc),
		Trips:         handler.NewTripHandler(tripSvc),
		Users:         handler.NewUserHandler(userSvc),
		Compliance:    handler.NewComplianceHandler(complianceSvc),
		Reports:       handler.NewReportHandler(reportSvc),
		Notifications: handler.NewNotificationHandler(notifierSvc),
	}, handler.RouteDeps{
		Auth:    authSvc,
		Audit:   userRepo,
		Limiter: limiter,
		Logger:  logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func newExportStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Reports.StorageBackend {
	case config.StorageS3:
		store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageLocal, "":
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Reports.StorageBackend)
}

func redisPinger(client *redis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
