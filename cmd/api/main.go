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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acolheapp/agenda-api/api/swagger"
	"github.com/acolheapp/agenda-api/internal/app"
	"github.com/acolheapp/agenda-api/internal/handler"
	"github.com/acolheapp/agenda-api/internal/middleware"
	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/internal/repository"
	"github.com/acolheapp/agenda-api/internal/service"
	"github.com/acolheapp/agenda-api/pkg/cache"
	"github.com/acolheapp/agenda-api/pkg/config"
	"github.com/acolheapp/agenda-api/pkg/database"
	"github.com/acolheapp/agenda-api/pkg/logger"
	corsmiddleware "github.com/acolheapp/agenda-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acolheapp/agenda-api/pkg/middleware/requestid"
)

// @title Acolhe Agenda API
// @version 1.0.0
// @description Free/busy computation and conflict-safe booking for specialized care
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		migrator, err := app.NewMigrator(db)
		if err != nil {
			logr.Sugar().Fatalw("migrator init failed", "error", err)
		}
		if err := migrator.Run(ctx); err != nil {
			logr.Sugar().Fatalw("migrations failed", "error", err)
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Slots.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, slot cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Slots.CacheTTL, logr, cacheRepo != nil)

	userRepo := repository.NewUserRepository(db)
	professionalRepo := repository.NewProfessionalRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	professionalSvc := service.NewProfessionalService(professionalRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, professionalRepo, userRepo, cacheSvc, logr)
	slotSvc := service.NewSlotService(availabilityRepo, appointmentRepo, cacheSvc, metricsSvc, cfg.Slots, logr)
	bookingSvc := service.NewBookingService(appointmentRepo, professionalRepo, studentRepo, tokenRepo, userRepo, slotSvc, cacheSvc, metricsSvc, cfg.Bookings, logr)
	exportSvc := service.NewExportService(appointmentRepo, professionalRepo, studentRepo, nil, nil, logr)

	reminderSvc := service.NewReminderService(appointmentRepo, studentRepo, userRepo, bookingSvc, tokenRepo, cfg.Reminders, logr)
	reminderSvc.Start(ctx)
	defer reminderSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	professionalHandler := handler.NewProfessionalHandler(professionalSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	slotHandler := handler.NewSlotHandler(slotSvc)
	appointmentHandler := handler.NewAppointmentHandler(bookingSvc)
	publicHandler := handler.NewPublicHandler(bookingSvc)
	reportHandler := handler.NewReportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	api.POST("/public/appointments/:token", publicHandler.Redeem)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	coordination := middleware.RequireRoles(models.RoleCoordination)
	staff := middleware.RequireRoles(models.RoleCoordination, models.RoleProfessional)

	protected.GET("/professionals", professionalHandler.List)
	protected.POST("/professionals", coordination, professionalHandler.Create)
	protected.GET("/professionals/:id", professionalHandler.Get)
	protected.PUT("/professionals/:id", coordination, professionalHandler.Update)
	protected.DELETE("/professionals/:id", coordination, professionalHandler.Deactivate)

	protected.GET("/professionals/:id/availability", availabilityHandler.Get)
	protected.PUT("/professionals/:id/availability", staff, availabilityHandler.Replace)

	protected.GET("/professionals/:id/slots", slotHandler.Day)
	protected.GET("/professionals/:id/slots/week", slotHandler.Week)
	protected.GET("/professionals/:id/slots/range", slotHandler.Range)
	protected.GET("/professionals/:id/slots/check", slotHandler.Check)

	protected.GET("/students", staff, studentHandler.List)
	protected.POST("/students", coordination, studentHandler.Create)
	protected.GET("/students/:id", studentHandler.Get)
	protected.PUT("/students/:id", coordination, studentHandler.Update)

	protected.GET("/appointments", appointmentHandler.List)
	protected.POST("/appointments", appointmentHandler.Reserve)
	protected.GET("/appointments/:id", appointmentHandler.Get)
	protected.PATCH("/appointments/:id/status", staff, appointmentHandler.ChangeStatus)
	protected.DELETE("/appointments/:id", appointmentHandler.Cancel)

	if cfg.Reports.Enabled {
		protected.GET("/reports/appointments.csv", staff, reportHandler.AppointmentsCSV)
		protected.GET("/reports/professionals/:id/agenda.pdf", staff, reportHandler.AgendaPDF)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

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
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
