package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-availability-api/api/swagger"
	"github.com/noah-isme/lms-availability-api/internal/handler"
	"github.com/noah-isme/lms-availability-api/internal/middleware"
	"github.com/noah-isme/lms-availability-api/internal/models"
	"github.com/noah-isme/lms-availability-api/internal/service"
	"github.com/noah-isme/lms-availability-api/pkg/config"
	"github.com/noah-isme/lms-availability-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-availability-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-availability-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth         *service.AuthService
	metrics      *service.MetricsService
	health       *handler.MetricsHandler
	calendar     *handler.CalendarHandler
	availability *handler.AvailabilityHandler
	// exports is nil when background exports are disabled.
	exports *handler.ExportHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if deps.exports != nil {
		api.GET("/export/:token", deps.exports.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))

	writers := middleware.RequireRoles(models.CalendarWriters...)
	calendars := secured.Group("/calendars/:calendarId")
	{
		calendars.GET("/events", deps.calendar.List)
		calendars.GET("/events/:id", deps.calendar.Get)
		calendars.POST("/events", writers, middleware.Audit(logr, "create", "calendar_event"), deps.calendar.Create)
		calendars.PUT("/events/:id", writers, middleware.Audit(logr, "update", "calendar_event"), deps.calendar.Update)
		calendars.DELETE("/events/:id", writers, middleware.Audit(logr, "delete", "calendar_event"), deps.calendar.Delete)

		calendars.GET("/availability/month", deps.availability.Month)
		calendars.GET("/availability/day", deps.availability.Day)
		calendars.GET("/availability/export", deps.availability.Export)
		if deps.exports != nil {
			calendars.POST("/availability/exports", deps.exports.Create)
		}
	}
	if deps.exports != nil {
		secured.GET("/availability/exports/:id", deps.exports.Status)
	}

	return r
}
