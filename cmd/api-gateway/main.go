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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/enrollment-gate/api/swagger"
	"github.com/noah-isme/enrollment-gate/internal/handler"
	"github.com/noah-isme/enrollment-gate/internal/identity"
	"github.com/noah-isme/enrollment-gate/internal/middleware"
	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/internal/notify"
	"github.com/noah-isme/enrollment-gate/internal/repository"
	"github.com/noah-isme/enrollment-gate/internal/service"
	"github.com/noah-isme/enrollment-gate/pkg/backend"
	"github.com/noah-isme/enrollment-gate/pkg/cache"
	"github.com/noah-isme/enrollment-gate/pkg/config"
	"github.com/noah-isme/enrollment-gate/pkg/jobs"
	"github.com/noah-isme/enrollment-gate/pkg/logger"
	corsmiddleware "github.com/noah-isme/enrollment-gate/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enrollment-gate/pkg/middleware/requestid"
)

// @title Enrollment Gate API
// @version 1.0.0
// @description Eligibility decisions and seat availability for course enrollment forms
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

	metrics := service.NewMetricsService()
	validate := identity.NewValidator()

	client := backend.NewClient(cfg.Backend, metrics, logr)
	courses := repository.NewCourseRepository(client)
	applicants := repository.NewApplicantRepository(client)
	submissions := repository.NewSubmissionRepository(client)

	readiness := map[string]handler.Pinger{}
	var redisClient redis.UniversalClient
	if cfg.Catalog.CacheEnabled {
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			redisClient = rdb
			defer rdb.Close() //nolint:errcheck
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	if redisClient != nil {
		readiness["redis"] = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, redisClient != nil)
	catalog := service.NewCatalogService(courses, cacheSvc, cfg.Catalog.CacheTTL, logr)

	listeners := []service.OfferingsListener{service.LogListener(logr)}
	if cfg.Notify.DiscordToken != "" {
		discord, err := notify.NewDiscord(cfg.Notify.DiscordToken, cfg.Notify.DiscordChannelID, cfg.Notify.FormURL)
		if err != nil {
			logr.Warn("discord notifications disabled", zap.Error(err))
		} else {
			listeners = append(listeners, discord.Notify)
		}
	}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		kafka, err := notify.NewKafka(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		if err != nil {
			logr.Warn("kafka publishing disabled", zap.Error(err))
		} else {
			defer kafka.Close()
			listeners = append(listeners, kafka.Publish)
		}
	}

	notifications := service.NewNotificationService(jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		BufferSize: cfg.Notify.BufferSize,
		MaxRetries: 2,
		RetryDelay: time.Second,
		Logger:     logr,
	}, logr, listeners...)
	notifications.Start(ctx)
	defer notifications.Stop()

	availability := service.NewAvailabilityCache(courses, service.AvailabilityOptions{
		TTL:         cfg.Availability.TTL,
		MinInterval: cfg.Availability.MinInterval,
	}, notifications, metrics, logr)
	go func() {
		if _, err := availability.Snapshot(ctx, false); err != nil {
			logr.Warn("initial availability fetch failed", zap.Error(err))
		}
	}()

	eligibility := service.NewEligibilityService(catalog, courses, applicants, availability, validate, metrics, logr)
	sessions := service.NewSessionRegistry(eligibility, service.SessionOptions{
		Debounce:  cfg.Lookup.Debounce,
		MinLength: cfg.Lookup.MinLength,
		IdleTTL:   cfg.Lookup.SessionIdleTTL,
	}, logr)
	go sessions.StartCleanup(ctx, time.Minute)

	submissionValidator := service.NewSubmissionValidator(availability, service.UploadPolicy{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	})
	submissionSvc := service.NewSubmissionService(eligibility, submissionValidator, submissions, metrics, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	eligibilityHandler := handler.NewEligibilityHandler(eligibility, validate)
	sessionHandler := handler.NewSessionHandler(sessions, validate)
	availabilityHandler := handler.NewAvailabilityHandler(availability, notifications, catalog, sessions, logr)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, submissionValidator.Policy().MaxFileSize)
	metricsHandler := handler.NewMetricsHandler(metrics, readiness)

	r := gin.New()
	r.MaxMultipartMemory = submissionValidator.Policy().MaxFileSize
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/eligibility", eligibilityHandler.Evaluate)

	api.POST("/sessions", sessionHandler.Open)
	api.PUT("/sessions/:id/identity", sessionHandler.SubmitIdentity)
	api.GET("/sessions/:id/decision", sessionHandler.Decision)
	api.DELETE("/sessions/:id", sessionHandler.Close)

	api.GET("/availability", availabilityHandler.Overview)
	api.GET("/availability/:courseTypeId/:shift", availabilityHandler.ShiftSeats)

	api.POST("/submissions", submissionHandler.Submit)

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
	admin.POST("/availability/refresh", availabilityHandler.Refresh)
	admin.GET("/availability/state", availabilityHandler.State)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
