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

	_ "github.com/classtrack/classtrack-api/api/swagger"
	"github.com/classtrack/classtrack-api/internal/handler"
	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/repository"
	"github.com/classtrack/classtrack-api/internal/scheduler"
	"github.com/classtrack/classtrack-api/internal/service"
	"github.com/classtrack/classtrack-api/pkg/cache"
	"github.com/classtrack/classtrack-api/pkg/config"
	"github.com/classtrack/classtrack-api/pkg/database"
	"github.com/classtrack/classtrack-api/pkg/jobs"
	"github.com/classtrack/classtrack-api/pkg/logger"
	"github.com/classtrack/classtrack-api/pkg/mailer"
	corsmiddleware "github.com/classtrack/classtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classtrack/classtrack-api/pkg/middleware/requestid"
)

// @title ClassTrack API
// @version 1.0.0
// @description Per-user subject attendance ledger with reminders
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	location, err := time.LoadLocation(cfg.Reminders.Timezone)
	if err != nil {
		logr.Sugar().Warnw("invalid reminders timezone, falling back to UTC", "timezone", cfg.Reminders.Timezone)
		location = time.UTC
	}

	var mailSender mailer.Sender
	if cfg.Mail.SendGridKey != "" {
		mailSender = mailer.NewSendGridSender(cfg.Mail.SendGridKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	} else {
		logr.Sugar().Warnw("no sendgrid key configured, emails go to the log")
		mailSender = mailer.NewConsoleSender(logr)
	}

	attendanceRepo := repository.NewAttendanceDocumentRepository(db)
	userRepo := repository.NewUserRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	otpRepo := repository.NewOTPRepository(redisClient, cfg.OTP.TTL)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	ledgerSvc := service.NewLedgerService(attendanceRepo, cacheRepo, metricsSvc, logr, service.LedgerConfig{
		MaxAttempts: cfg.Ledger.TxMaxAttempts,
		RetryDelay:  cfg.Ledger.TxRetryDelay,
	})
	reporterSvc := service.NewReporterService(attendanceRepo, cacheRepo, metricsSvc, logr, cfg.Summary.CacheTTL)
	authSvc := service.NewAuthService(userRepo, otpRepo, mailSender, validate, logr, service.AuthConfig{
		TokenSecret:    cfg.JWT.Secret,
		TokenExpiry:    cfg.JWT.Expiration,
		Issuer:         cfg.JWT.Issuer,
		OTPMaxAttempts: cfg.OTP.MaxAttempts,
	})
	reminderSvc := service.NewReminderService(reminderRepo, userRepo, mailSender, logr, location)

	dispatchQueue := jobs.NewQueue("reminders", func(jobCtx context.Context, job jobs.Job) error {
		result, err := reminderSvc.DispatchDaily(jobCtx)
		if err != nil {
			return err
		}
		logr.Sugar().Infow("daily reminder dispatch finished",
			"job_id", job.ID, "scanned", result.Scanned, "sent", result.Sent, "failed", result.Failed)
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Reminders.WorkerConcurrency,
		MaxRetries: cfg.Reminders.WorkerRetries,
		Logger:     logr,
	})
	dispatchQueue.Start(ctx)
	defer dispatchQueue.Stop()

	if cfg.Reminders.Enabled {
		daily := scheduler.New(dispatchQueue, cfg.Reminders.DispatchHour, location, logr)
		go daily.Run(ctx)
	}

	attendanceHandler := handler.NewAttendanceHandler(ledgerSvc, reporterSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	reminderHandler := handler.NewReminderHandler(reminderSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/send-otp", authHandler.SendOTP)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	attendance := api.Group("/attendance", middleware.JWT(authSvc))
	{
		attendance.POST("/subjects", attendanceHandler.AddSubject)
		attendance.DELETE("/subjects/:subject", attendanceHandler.DeleteSubject)
		attendance.POST("/mark", attendanceHandler.Mark)
		attendance.DELETE("/records/:subject/:date", attendanceHandler.ResetDate)
		attendance.GET("/records", attendanceHandler.Records)
		attendance.GET("/summary", attendanceHandler.Summary)
		attendance.GET("/summary/export", attendanceHandler.ExportSummary)
	}

	reminders := api.Group("/reminders", middleware.JWT(authSvc))
	{
		reminders.GET("", reminderHandler.List)
		reminders.POST("", reminderHandler.Add)
		reminders.DELETE("/:id", reminderHandler.Delete)
		reminders.POST("/send", reminderHandler.Send)
		reminders.POST("/trigger-daily", reminderHandler.TriggerDaily)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
