package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/study-planner-api/api/swagger"
	"github.com/noah-isme/study-planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/study-planner-api/internal/middleware"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/repository"
	"github.com/noah-isme/study-planner-api/internal/service"
	"github.com/noah-isme/study-planner-api/pkg/cache"
	"github.com/noah-isme/study-planner-api/pkg/config"
	"github.com/noah-isme/study-planner-api/pkg/database"
	"github.com/noah-isme/study-planner-api/pkg/events"
	"github.com/noah-isme/study-planner-api/pkg/jobs"
	"github.com/noah-isme/study-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/study-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/study-planner-api/pkg/middleware/requestid"
)

// @title Study Planner API
// @version 1.0.0
// @description Study schedule optimization, conflict detection and exam net scoring
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, optimization cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Planner.CacheTTL, logr, redisClient != nil)

	publisher := events.NewPublisher(cfg.Kafka, logr)
	defer func() {
		if err := publisher.Close(); err != nil {
			logr.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	scheduleRepo := repository.NewStudyScheduleRepository(db)
	commitmentRepo := repository.NewCommitmentRepository(db)
	preferenceRepo := repository.NewStudyPreferenceRepository(db)
	examRepo := repository.NewExamResultRepository(db)

	feedback := service.NewSubjectWeightWorker(examRepo, preferenceRepo, cacheSvc, logr)
	queue := jobs.NewQueue("subject-weights", feedback.Handle, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret}, logr)
	plannerSvc := service.NewStudyPlannerService(
		scheduleRepo,
		commitmentRepo,
		preferenceRepo,
		db,
		cacheSvc,
		metrics,
		publisher,
		validate,
		logr,
		service.StudyPlannerConfigFrom(cfg.Planner),
	)
	examSvc := service.NewExamScoreService(examRepo, queue, publisher, metrics, validate, logr, cfg.Planner.WrongAnswerPenalty)

	dependencies := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		dependencies["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	metricsHandler := handler.NewMetricsHandler(metrics, dependencies)
	plannerHandler := handler.NewPlannerHandler(plannerSvc)
	examHandler := handler.NewExamHandler(examSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authSvc))
	api.GET("/metrics/summary", internalmiddleware.RequireRoles(models.RoleAdmin), metricsHandler.Summary)

	registerLearnerRoutes(api, plannerHandler, examHandler)

	delegated := api.Group("/learners/:learnerID")
	delegated.Use(internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleTutor), "SELF"))
	registerLearnerRoutes(delegated, plannerHandler, examHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func registerLearnerRoutes(group *gin.RouterGroup, planner *handler.PlannerHandler, exams *handler.ExamHandler) {
	plannerGroup := group.Group("/planner")
	plannerGroup.POST("/optimize", planner.Optimize)
	plannerGroup.POST("/conflicts", planner.Conflicts)
	plannerGroup.POST("/slots", planner.Slots)
	plannerGroup.POST("/proposals/:id/save", planner.SaveProposal)
	plannerGroup.GET("/schedules", planner.ListSchedules)
	plannerGroup.GET("/schedules/:id", planner.GetSchedule)
	plannerGroup.DELETE("/schedules/:id", planner.DeleteSchedule)
	plannerGroup.GET("/schedules/:id/export", planner.ExportSchedule)
	plannerGroup.GET("/preferences", planner.GetPreferences)
	plannerGroup.PUT("/preferences", planner.UpdatePreferences)
	plannerGroup.GET("/commitments", planner.ListCommitments)
	plannerGroup.POST("/commitments", planner.CreateCommitment)

	examGroup := group.Group("/exams")
	examGroup.POST("/score", exams.Score)
	examGroup.GET("/results", exams.Results)
}
