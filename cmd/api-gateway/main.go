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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-registration-api/internal/allocation"
	"github.com/noah-isme/exam-registration-api/internal/handler"
	"github.com/noah-isme/exam-registration-api/internal/repository"
	"github.com/noah-isme/exam-registration-api/internal/service"
	"github.com/noah-isme/exam-registration-api/pkg/cache"
	"github.com/noah-isme/exam-registration-api/pkg/config"
	"github.com/noah-isme/exam-registration-api/pkg/database"
	"github.com/noah-isme/exam-registration-api/pkg/logger"
	"github.com/noah-isme/exam-registration-api/pkg/middleware/ratelimit"
)

// @title Exam Registration API
// @version 1.0.0
// @description Students reserve exam time slots; staff manage the roster.
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(cfg.Exams)
	if err != nil {
		return fmt.Errorf("build allocation engine: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		labels := make([]string, 0, len(engine.Catalog().SlotLabels()))
		for _, label := range engine.Catalog().SlotLabels() {
			labels = append(labels, string(label))
		}
		if err := database.EnsureSchema(ctx, db, labels); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, logr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	accountRepo := repository.NewAccountRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, logr)
	defer sessionRepo.Close() //nolint:errcheck

	emailPolicy, err := service.NewEmailPolicy(cfg.Login.EmailPatterns)
	if err != nil {
		return fmt.Errorf("build email policy: %w", err)
	}
	accountSvc := service.NewAccountService(accountRepo, auditRepo, emailPolicy, validate, logr)
	authSvc, err := service.NewAuthService(accountSvc, sessionRepo, auditRepo, validate, logr, metrics, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		EmailPatterns:     cfg.Login.EmailPatterns,
		MaxFailures:       cfg.Login.MaxFailures,
		LockoutWindow:     cfg.Login.LockoutWindow,
	})
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}
	reservationSvc := service.NewReservationService(reservationRepo, auditRepo, engine, logr, metrics)
	exportSvc := service.NewExportService(reservationRepo, engine.Catalog(), logr)

	var loginLimiter *ratelimit.Store
	if cfg.Login.RateLimitRPS > 0 {
		loginLimiter = ratelimit.NewStore(cfg.Login.RateLimitRPS, cfg.Login.RateLimitBurst)
	}

	router := newRouter(cfg, logr, routes{
		auth:         handler.NewAuthHandler(authSvc),
		reservations: handler.NewReservationHandler(reservationSvc, exportSvc),
		accounts:     handler.NewAccountHandler(accountSvc),
		ops:          handler.NewMetricsHandler(metrics, db),
		tokens:       authSvc,
		audit:        auditRepo,
		metrics:      metrics,
		loginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	policy := engine.Policy()
	logr.Info("server starting",
		zap.String("addr", srv.Addr),
		zap.String("env", cfg.Env),
		zap.Int("slot_capacity", policy.MaxCapacity),
		zap.Int("max_unique_exams", policy.MaxUniqueExams),
		zap.Bool("redis", redisClient != nil),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logr.Info("server stopped")
	return nil
}

func newEngine(cfg config.ExamConfig) (*allocation.Engine, error) {
	catalog, err := allocation.ParseCatalog(cfg.ExamTypes, cfg.TimeSlots)
	if err != nil {
		return nil, err
	}
	return allocation.NewEngine(catalog, allocation.Policy{
		MaxCapacity:    cfg.SlotCapacity,
		MaxUniqueExams: cfg.MaxUniqueExams,
	})
}
