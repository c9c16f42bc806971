package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hosteldesk/facility-api/api/swagger"
	"github.com/hosteldesk/facility-api/internal/handler"
	"github.com/hosteldesk/facility-api/internal/middleware"
	"github.com/hosteldesk/facility-api/internal/repository"
	"github.com/hosteldesk/facility-api/internal/service"
	"github.com/hosteldesk/facility-api/pkg/cache"
	"github.com/hosteldesk/facility-api/pkg/config"
	"github.com/hosteldesk/facility-api/pkg/database"
	"github.com/hosteldesk/facility-api/pkg/logger"
	"github.com/hosteldesk/facility-api/pkg/mailer"
	corsmiddleware "github.com/hosteldesk/facility-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hosteldesk/facility-api/pkg/middleware/requestid"

	"github.com/go-playground/validator/v10"
)

// @title Hostel Facility API
// @version 1.0.0
// @description Hostel facility management: complaints, cleaning tasks and electrical tickets
// @BasePath /api
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
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()

	notifSvc := service.NewNotificationService(mailer.NewSMTPSender(cfg.SMTP), logr, service.NotificationConfig{
		Enabled:    cfg.Notifications.Enabled,
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	notifSvc.Start(context.Background())
	defer notifSvc.Stop()

	metricsSvc := service.NewMetricsService(notifSvc.SentCount)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil && cfg.Dashboard.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	complaintSvc := service.NewComplaintService(complaintRepo, userRepo, notifSvc, cacheSvc, validate, logr)
	ticketSvc := service.NewTicketService(ticketRepo, complaintRepo, userRepo, notifSvc, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(complaintRepo, ticketRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	if err := userSvc.EnsureDefaultAdmin(context.Background(), cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		logr.Sugar().Fatalw("failed to ensure default admin", "error", err)
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	h := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Complaint:   handler.NewComplaintHandler(complaintSvc),
		Warden:      handler.NewWardenHandler(complaintSvc, ticketSvc, userSvc),
		Cleaner:     handler.NewCleanerHandler(complaintSvc),
		Electrician: handler.NewElectricianHandler(ticketSvc),
		Admin:       handler.NewAdminHandler(userSvc, complaintSvc, metricsSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Metrics:     metricsHandler,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
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

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), h, middleware.JWT(authSvc))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
