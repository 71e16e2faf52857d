package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/golflink/golflink-api/api/swagger"
	"github.com/golflink/golflink-api/internal/geocode"
	"github.com/golflink/golflink-api/internal/handler"
	"github.com/golflink/golflink-api/internal/middleware"
	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/repository"
	"github.com/golflink/golflink-api/internal/service"
	"github.com/golflink/golflink-api/pkg/cache"
	"github.com/golflink/golflink-api/pkg/config"
	"github.com/golflink/golflink-api/pkg/database"
	"github.com/golflink/golflink-api/pkg/export"
	"github.com/golflink/golflink-api/pkg/logger"
	corsmiddleware "github.com/golflink/golflink-api/pkg/middleware/cors"
	reqidmiddleware "github.com/golflink/golflink-api/pkg/middleware/requestid"
	"github.com/golflink/golflink-api/pkg/storage"
)

// @title GolfLink API
// @version 1.0.0
// @description Golf instructor directory and marketplace API
// @BasePath /api/v1
// @schemes http https

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	instructorRepo := repository.NewInstructorRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Search.CacheTTL, logr, cfg.Search.CacheEnabled && redisClient != nil)
	geocoder := geocode.NewClient(cfg.Geocoder, logr)

	searchSvc := service.NewSearchService(instructorRepo, geocoder, cacheSvc, metricsSvc, logr, cfg.Search)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "golflink-api",
	})
	backfillSvc := service.NewBackfillService(instructorRepo, geocoder, metricsSvc, logr, cfg.Backfill)
	instructorSvc := service.NewInstructorService(instructorRepo, userRepo, searchSvc, backfillSvc, validate, logr)

	fileStore, err := storage.NewFileStore(cfg.Photos.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init file storage", "error", err)
	}
	applicationSvc := service.NewApplicationService(instructorRepo, fileStore, validate, logr, cfg.Photos)

	signer := storage.NewSignedURLSigner(cfg.Photos.SignedURLSecret, cfg.Photos.SignedURLTTL)
	exportSvc := service.NewExportService(instructorRepo, userRepo, fileStore, signer, service.ExportServiceConfig{
		Enabled:         cfg.Exports.Enabled,
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.ResultTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	backfillSvc.Start(jobCtx)
	if cfg.Exports.Enabled {
		exportSvc.StartCleanup(jobCtx)
	}
	defer func() {
		cancelJobs()
		backfillSvc.Stop()
	}()

	authHandler := handler.NewAuthHandler(authSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/instructors", searchHandler.List)
		api.GET("/instructors/:id", searchHandler.Get)
		api.POST("/applications", applicationHandler.Submit)
		api.GET("/export/:token", exportHandler.Download)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
		{
			admin.GET("/instructors", instructorHandler.List)
			admin.POST("/instructors", instructorHandler.Create)
			admin.GET("/instructors/export", exportHandler.Generate)
			admin.GET("/instructors/:id", instructorHandler.Get)
			admin.PUT("/instructors/:id", instructorHandler.Update)
			admin.DELETE("/instructors/:id", instructorHandler.Delete)
			admin.POST("/instructors/:id/approve", instructorHandler.Approve)
			admin.POST("/instructors/:id/reject", instructorHandler.Reject)
			admin.GET("/status", metricsHandler.Status)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("forced shutdown", "error", err)
	}
}
