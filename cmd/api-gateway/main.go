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
	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/availability"
	"github.com/noah-isme/lms-availability-api/internal/handler"
	"github.com/noah-isme/lms-availability-api/internal/ics"
	"github.com/noah-isme/lms-availability-api/internal/repository"
	"github.com/noah-isme/lms-availability-api/internal/service"
	"github.com/noah-isme/lms-availability-api/pkg/cache"
	"github.com/noah-isme/lms-availability-api/pkg/config"
	"github.com/noah-isme/lms-availability-api/pkg/database"
	"github.com/noah-isme/lms-availability-api/pkg/jobs"
	"github.com/noah-isme/lms-availability-api/pkg/logger"
	"github.com/noah-isme/lms-availability-api/pkg/storage"
)

// @title LMS Availability API
// @version 1.0.0
// @description Free/busy month grids, free slots and availability exports for LMS calendars.
// @BasePath /api/v1
// @schemes http https
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

	schedule, err := config.LoadSchedule(cfg.Availability)
	if err != nil {
		logr.Fatal("invalid availability schedule", zap.Error(err))
	}
	engine, err := availability.NewEngine(schedule)
	if err != nil {
		logr.Fatal("failed to build availability engine", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		} else {
			redisClient = client
			defer client.Close() //nolint:errcheck
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient),
		metrics,
		cfg.Availability.CacheTTL,
		logr,
		cfg.Availability.CacheEnabled && redisClient != nil,
	)

	calendarRepo := repository.NewCalendarRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	source := service.NewMultiEventSource(metrics, logr,
		service.NamedSource{Name: "postgres", Source: service.NewCalendarEventSource(calendarRepo)},
		service.NamedSource{Name: "ics", Source: ics.NewFeedSource(cfg.ICS.Feeds, cfg.ICS.FetchTimeout, logr)},
	)

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	calendarSvc := service.NewCalendarService(calendarRepo, cacheSvc, validator.New(), logr)
	availabilitySvc := service.NewAvailabilityService(engine, source, cacheSvc, metrics, cfg.Availability.CacheTTL, logr)

	exportCfg := service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		MaxDays:   cfg.Availability.MaxExportDays,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}
	exportSvc := service.NewExportService(engine, source, nil, nil, metrics, exportCfg, logr)

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(engine, source, files, signer, metrics, exportCfg, logr)

		worker := service.NewExportWorker(exportRepo, exportSvc, metrics, logr)
		queue := jobs.NewQueue("availability-exports", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Exports.WorkerConcurrency,
			MaxRetries:  cfg.Exports.WorkerRetries,
			RetryDelay:  5 * time.Second,
			OnExhausted: worker.MarkExhausted,
			Logger:      logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		exportJobSvc := service.NewExportJobService(exportRepo, queue, exportSvc, metrics, logr, service.ExportJobConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupSchedule: cfg.Exports.CleanupSchedule,
		})
		exportJobSvc.RecoverPendingJobs(ctx)
		if _, err := exportJobSvc.StartCleanup(ctx); err != nil {
			logr.Fatal("invalid export cleanup schedule", zap.String("schedule", cfg.Exports.CleanupSchedule), zap.Error(err))
		}
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	r := newRouter(cfg, logr, routerDeps{
		auth:         authSvc,
		metrics:      metrics,
		health:       handler.NewMetricsHandler(metrics, checks),
		calendar:     handler.NewCalendarHandler(calendarSvc),
		availability: handler.NewAvailabilityHandler(availabilitySvc, exportSvc),
		exports:      exportHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("timezone", engine.Location().String()),
			zap.Strings("windows", schedule.WindowNames()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
