package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-insights-api/api/swagger"
	"github.com/noah-isme/school-insights-api/internal/handler"
	"github.com/noah-isme/school-insights-api/internal/middleware"
	"github.com/noah-isme/school-insights-api/internal/repository"
	"github.com/noah-isme/school-insights-api/internal/service"
	"github.com/noah-isme/school-insights-api/pkg/cache"
	"github.com/noah-isme/school-insights-api/pkg/config"
	"github.com/noah-isme/school-insights-api/pkg/database"
	"github.com/noah-isme/school-insights-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-insights-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-insights-api/pkg/middleware/requestid"
)

// @title School Insights API
// @version 0.1.0
// @description Ranked analytics reports over school operational data
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled && cacheRepo != nil)

	refRepo := repository.NewReferenceRepository(db)
	attendanceSvc := service.NewAttendanceAnalyticsService(repository.NewAttendanceRepository(db), refRepo, cacheSvc, metricsSvc, logr)
	feeSvc := service.NewFeeAnalyticsService(repository.NewFeeRepository(db), refRepo, cacheSvc, metricsSvc, logr)
	academicsSvc := service.NewAcademicsAnalyticsService(repository.NewAcademicsRepository(db), refRepo, refRepo, cacheSvc, metricsSvc, logr)
	taskSvc := service.NewTaskAnalyticsService(repository.NewTaskRepository(db), cacheSvc, metricsSvc, logr)
	syllabusSvc := service.NewSyllabusAnalyticsService(repository.NewSyllabusRepository(db), refRepo, cacheSvc, metricsSvc, logr)
	operationsSvc := service.NewOperationsAnalyticsService(repository.NewOperationsRepository(db), refRepo, cacheSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(nil, nil, cfg.Export.MaxRows, logr)

	analyticsHandler := handler.NewAnalyticsHandler(attendanceSvc, feeSvc, academicsSvc, taskSvc, syllabusSvc, operationsSvc, metricsSvc, cacheSvc, cfg.Analytics)
	exportHandler := handler.NewExportHandler(analyticsHandler, exportSvc, cfg.Export)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		analyticsGroup := api.Group("/analytics")
		analyticsGroup.GET("/attendance", analyticsHandler.Attendance)
		analyticsGroup.GET("/fees", analyticsHandler.Fees)
		analyticsGroup.GET("/academics", analyticsHandler.Academics)
		analyticsGroup.GET("/tasks", analyticsHandler.Tasks)
		analyticsGroup.GET("/syllabus", analyticsHandler.Syllabus)
		analyticsGroup.GET("/operations", analyticsHandler.Operations)
		analyticsGroup.GET("/system", analyticsHandler.System)
		analyticsGroup.GET("/:domain/export", exportHandler.Download)
		analyticsGroup.DELETE("/cache", analyticsHandler.RefreshCache)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
