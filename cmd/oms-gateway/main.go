package main

import (
	"context"
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

	_ "github.com/oms-suite/oms-gateway/api/swagger"
	"github.com/oms-suite/oms-gateway/internal/handler"
	"github.com/oms-suite/oms-gateway/internal/middleware"
	"github.com/oms-suite/oms-gateway/internal/repository"
	"github.com/oms-suite/oms-gateway/internal/service"
	"github.com/oms-suite/oms-gateway/internal/sheets"
	"github.com/oms-suite/oms-gateway/pkg/cache"
	"github.com/oms-suite/oms-gateway/pkg/config"
	"github.com/oms-suite/oms-gateway/pkg/jobs"
	"github.com/oms-suite/oms-gateway/pkg/logger"
	corsmiddleware "github.com/oms-suite/oms-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/oms-suite/oms-gateway/pkg/middleware/requestid"
	"github.com/oms-suite/oms-gateway/pkg/storage"
)

// @title OMS Gateway
// @version 1.0.0
// @description API gateway for the office management system backed by a spreadsheet web app
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and sessions degraded", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, 5*time.Minute, logr, true)
	} else {
		cacheService = service.NewCacheService(nil, metricsService, 0, logr, false)
	}

	sheetClient := sheets.NewClient(cfg.Sheets, logr)
	sheetClient.SetObserver(metricsService)

	sessionRepo, err := repository.NewSessionRepository(redisClient, cfg.Session.SealKey)
	if err != nil {
		logr.Sugar().Fatalw("failed to init session store", "error", err)
	}

	authService := service.NewAuthService(sheetClient, sessionRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		SessionTTL:        cfg.Session.TTL,
	})

	announcementService := service.NewAnnouncementService(sheetClient, validate, logr)
	vehicleService := service.NewVehicleService(sheetClient, validate, logr)
	calendarService := service.NewCalendarService(sheetClient, cacheService, logr, cfg.Calendar.CacheTTL)
	dashboardService := service.NewDashboardService(sheetClient, cacheService, logr, cfg.Dashboard.CacheTTL)
	uploadService := service.NewUploadService(sheetClient, validate, logr, cfg.Uploads.MaxFileSizeBytes)

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportJobRepo := repository.NewExportJobRepository(redisClient, 2*cfg.Exports.SignedURLTTL)

	exportService := service.NewExportService(announcementService, vehicleService, exportJobRepo, nil, exportStorage, signer, service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupSchedule: cfg.Exports.CleanupSchedule,
	}, logr)

	exportWorker := service.NewExportWorker(exportJobRepo, exportService, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportService.SetQueue(exportQueue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	if err := exportService.StartCleanup(); err != nil {
		logr.Sugar().Fatalw("failed to schedule export cleanup", "error", err)
	}
	defer exportService.StopCleanup()

	authHandler := handler.NewAuthHandler(authService)
	announcementHandler := handler.NewAnnouncementHandler(announcementService, authService, calendarService, dashboardService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService, authService, calendarService, dashboardService)
	calendarHandler := handler.NewCalendarHandler(calendarService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	uploadHandler := handler.NewUploadHandler(uploadService, authService)
	exportHandler := handler.NewExportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/exports/download/:token", middleware.OptionalJWT(authService), exportHandler.Download)

		authed := api.Group("")
		authed.Use(middleware.JWT(authService))
		{
			authed.POST("/auth/logout", authHandler.Logout)
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/dashboard", dashboardHandler.Summary)
			authed.GET("/calendar", calendarHandler.Month)
			authed.GET("/announcements", announcementHandler.List)
			authed.GET("/vehicle-logs", vehicleHandler.List)

			authed.POST("/exports", exportHandler.Create)
			authed.GET("/exports/:id", exportHandler.Status)

			admin := authed.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/announcements", announcementHandler.Create)
				admin.PUT("/announcements/:id", announcementHandler.Update)
				admin.DELETE("/announcements/:id", announcementHandler.Delete)

				admin.POST("/vehicle-logs", vehicleHandler.Create)
				admin.PUT("/vehicle-logs/:id", vehicleHandler.Update)
				admin.DELETE("/vehicle-logs/:id", vehicleHandler.Delete)

				admin.POST("/uploads", uploadHandler.Upload)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("shutdown incomplete", "error", err)
	}
}
