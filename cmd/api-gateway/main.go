package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/shift-sync-api/api/swagger"
	"github.com/noah-isme/shift-sync-api/internal/handler"
	"github.com/noah-isme/shift-sync-api/internal/middleware"
	"github.com/noah-isme/shift-sync-api/internal/repository"
	"github.com/noah-isme/shift-sync-api/internal/service"
	"github.com/noah-isme/shift-sync-api/pkg/cache"
	"github.com/noah-isme/shift-sync-api/pkg/config"
	"github.com/noah-isme/shift-sync-api/pkg/database"
	"github.com/noah-isme/shift-sync-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/shift-sync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/shift-sync-api/pkg/middleware/requestid"
)

// @title Shift Sync API
// @version 0.1.0
// @description Shift-change reconciliation service
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	shiftRepo := repository.NewShiftRepository(db)
	changeLogRepo := repository.NewChangeLogRepository(db)
	proposalRepo := repository.NewProposalRepository(db)

	metricsSvc := service.NewMetricsService()

	var scheduleCache *repository.ScheduleCacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		scheduleCache = repository.NewScheduleCacheRepository(redisClient, logr, cfg.Cache.TTL)
	}

	// The calendar provider is an external adapter. None ships in-process;
	// wire one here when a concrete integration lands.
	var provider service.CalendarProvider

	proposalOpts := []service.ProposalServiceOption{
		service.WithMetrics(metricsSvc),
		service.WithDetector(service.ConflictDetector{AllowMultipleAllDay: cfg.Detector.AllowMultipleAllDay}),
	}
	if provider != nil {
		proposalOpts = append(proposalOpts, service.WithCalendarProvider(provider))
	}
	if scheduleCache != nil {
		proposalOpts = append(proposalOpts, service.WithScheduleInvalidator(scheduleCache))
	}
	proposalSvc := service.NewProposalService(shiftRepo, changeLogRepo, proposalRepo, logr, proposalOpts...)
	bulkSvc := service.NewBulkChangeCoordinator(proposalSvc, logr)
	shiftSvc := service.NewShiftService(shiftRepo, scheduleCache, metricsSvc, logr)
	changeLogSvc := service.NewChangeLogService(changeLogRepo)

	var reconcilerSvc *service.ReconcilerService
	if cfg.Reconciler.Enabled {
		reconcilerSvc = service.NewReconcilerService(shiftRepo, changeLogRepo, proposalRepo,
			proposalSvc, provider, metricsSvc, logr, service.ReconcilerConfig{
				Interval:    cfg.Reconciler.Interval,
				WindowDays:  cfg.Reconciler.WindowDays,
				Owners:      cfg.Reconciler.Owners,
				Concurrency: cfg.Reconciler.WorkerConcurrency,
				QueueBuffer: cfg.Reconciler.QueueBuffer,
			})
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	shiftHandler := handler.NewShiftHandler(shiftSvc)
	proposalHandler := handler.NewProposalHandler(proposalSvc, bulkSvc)
	changeLogHandler := handler.NewChangeLogHandler(changeLogSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/shifts", shiftHandler.Schedule)
		api.GET("/shifts/:id", shiftHandler.Get)

		api.POST("/proposals", proposalHandler.Submit)
		api.POST("/proposals/bulk", proposalHandler.SubmitBulk)
		api.GET("/proposals", proposalHandler.List)
		api.GET("/proposals/:id", proposalHandler.Get)
		api.DELETE("/proposals/:id", proposalHandler.Cancel)
		api.POST("/proposals/:id/approve", proposalHandler.Approve)
		api.POST("/proposals/:id/deny", proposalHandler.Deny)

		api.GET("/changelog", changeLogHandler.List)
		api.GET("/changelog/latest", changeLogHandler.Latest)

		if cfg.Exports.Enabled {
			exportSvc := service.NewExportService(changeLogRepo, cfg.Exports.PageSize, logr)
			exportHandler := handler.NewExportHandler(exportSvc)
			api.GET("/exports/changelog", exportHandler.ChangeLog)
		}
		if reconcilerSvc != nil {
			reconcileHandler := handler.NewReconcileHandler(reconcilerSvc)
			api.POST("/reconcile/:ownerId", reconcileHandler.Run)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if reconcilerSvc != nil {
		reconcilerSvc.Start(ctx)
		defer reconcilerSvc.Stop()
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
	logr.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
