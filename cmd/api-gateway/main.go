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
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/college-ledger-api/api/swagger"
	"github.com/noah-isme/college-ledger-api/internal/handler"
	internalmiddleware "github.com/noah-isme/college-ledger-api/internal/middleware"
	"github.com/noah-isme/college-ledger-api/internal/models"
	"github.com/noah-isme/college-ledger-api/internal/repository"
	"github.com/noah-isme/college-ledger-api/internal/service"
	"github.com/noah-isme/college-ledger-api/pkg/cache"
	"github.com/noah-isme/college-ledger-api/pkg/config"
	"github.com/noah-isme/college-ledger-api/pkg/database"
	"github.com/noah-isme/college-ledger-api/pkg/export"
	"github.com/noah-isme/college-ledger-api/pkg/logger"
	"github.com/noah-isme/college-ledger-api/pkg/messaging"
	corsmiddleware "github.com/noah-isme/college-ledger-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/college-ledger-api/pkg/middleware/requestid"
)

// @title College Ledger API
// @version 1.0.0
// @description Academic progression, registration and fee ledger for college students
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	natsConn, err := messaging.Connect(cfg.NATS, logr)
	if err != nil {
		logr.Fatal("failed to connect nats", zap.Error(err))
	}
	if natsConn != nil {
		defer natsConn.Drain() //nolint:errcheck
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	events := service.NewEventDispatcher(
		messaging.NewPublisher(natsConn, cfg.NATS.SubjectPrefix),
		service.EventDispatcherConfig{
			Workers:    cfg.Events.Workers,
			BufferSize: cfg.Events.BufferSize,
			MaxRetries: cfg.Events.MaxRetries,
			RetryDelay: cfg.Events.RetryDelay,
		},
		metricsSvc,
		logr,
	)
	events.Start(context.Background())

	router := buildRouter(cfg, logr, db, redisClient, natsConn, metricsSvc, events)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	events.Stop(shutdownCtx)
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, natsConn *nats.Conn, metricsSvc *service.MetricsService, events service.EventPublisher) *gin.Engine {
	validate := validator.New()

	catalogRepo := repository.NewCatalogRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	extensionRepo := repository.NewExtensionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var (
		cacheSvc       *service.CacheService
		idempotencySvc *service.IdempotencyService
	)
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, "college-ledger", logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, true)
		idempotencyRepo := repository.NewIdempotencyRepository(redisClient, "college-ledger")
		idempotencySvc = service.NewIdempotencyService(idempotencyRepo, cfg.Idempotency.TTL, logr)
	} else {
		logr.Warn("redis disabled: catalog cache and idempotency keys are off")
	}

	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, logr)
	progressionSvc := service.NewProgressionService(
		enrollmentRepo,
		catalogSvc,
		service.ProgressionPolicy{
			OpenFeeCategory:          cfg.Progression.OpenFeeCategory,
			TransferRequiresEligible: cfg.Progression.TransferRequiresEligible,
		},
		validate,
		logr,
		service.WithProgressionPublisher(events),
		service.WithProgressionIdempotency(idempotencySvc),
		service.WithProgressionMetrics(metricsSvc),
	)
	registrationSvc := service.NewRegistrationService(enrollmentRepo, catalogSvc, events, idempotencySvc, metricsSvc, validate, logr)
	ledgerSvc := service.NewLedgerService(enrollmentRepo, paymentRepo, export.NewCSVExporter(), logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, logr)
	extensionSvc := service.NewExtensionFieldService(extensionRepo, logr)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	progressionHandler := handler.NewProgressionHandler(progressionSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc)
	extensionHandler := handler.NewExtensionFieldHandler(extensionSvc)

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if natsConn != nil {
		checks["nats"] = func(context.Context) error {
			if status := natsConn.Status(); status != nats.CONNECTED {
				return fmt.Errorf("nats status %s", status)
			}
			return nil
		}
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	catalog := api.Group("/catalog")
	catalog.GET("/streams", catalogHandler.Streams)
	catalog.GET("/streams/:id/courses", catalogHandler.Courses)
	catalog.GET("/courses/:id/academic-years", catalogHandler.AcademicYears)
	catalog.GET("/courses/:id/fees/:category", catalogHandler.FeeAmount)
	catalog.GET("/academic-years/:id/semesters", catalogHandler.Semesters)
	catalog.GET("/semesters/:id/subjects", catalogHandler.Subjects)

	students := api.Group("/students/:id")
	students.GET("/enrollment", enrollmentHandler.Current)
	students.GET("/enrollments", enrollmentHandler.History)
	students.GET("/promotion-target", progressionHandler.PromotionTarget)
	students.POST("/promote",
		internalmiddleware.Audit(auditRepo, logr, models.AuditActionPromote, models.AuditResourceStudent, "id"),
		progressionHandler.Promote)
	students.POST("/transfer",
		internalmiddleware.Audit(auditRepo, logr, models.AuditActionTransferBranch, models.AuditResourceStudent, "id"),
		progressionHandler.Transfer)
	students.GET("/financials", ledgerHandler.Summary)
	students.GET("/financials/years/:yearEnrollmentId", ledgerHandler.Year)
	students.GET("/financials/statement.csv", ledgerHandler.Statement)
	students.GET("/extension-fields", extensionHandler.Get)
	students.PUT("/extension-fields",
		internalmiddleware.Audit(auditRepo, logr, models.AuditActionExtensionUpdate, models.AuditResourceStudent, "id"),
		extensionHandler.Replace)

	yearEnrollments := api.Group("/academic-year-enrollments/:id")
	yearEnrollments.GET("", enrollmentHandler.Registration)
	yearEnrollments.POST("/register",
		internalmiddleware.Audit(auditRepo, logr, models.AuditActionRegister, models.AuditResourceYearEnrollment, "id"),
		registrationHandler.Register)

	return r
}
