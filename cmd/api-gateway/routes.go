package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/exam-registration-api/api/swagger"
	"github.com/noah-isme/exam-registration-api/internal/handler"
	"github.com/noah-isme/exam-registration-api/internal/middleware"
	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/service"
	"github.com/noah-isme/exam-registration-api/pkg/config"
	"github.com/noah-isme/exam-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-registration-api/pkg/middleware/cors"
	"github.com/noah-isme/exam-registration-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/exam-registration-api/pkg/middleware/requestid"
)

type routes struct {
	auth         *handler.AuthHandler
	reservations *handler.ReservationHandler
	accounts     *handler.AccountHandler
	ops          *handler.MetricsHandler
	tokens       middleware.TokenValidator
	audit        middleware.AuditWriter
	metrics      *service.MetricsService
	loginLimiter *ratelimit.Store
}

func newRouter(cfg *config.Config, logr *zap.Logger, rt routes) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(rt.metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", rt.ops.Health)
	r.GET("/ready", rt.ops.Ready)
	r.GET("/metrics", rt.ops.Prometheus)

	if cfg.DocsEnabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	loginChain := []gin.HandlerFunc{}
	if rt.loginLimiter != nil {
		loginChain = append(loginChain, ratelimit.ByClientIP(rt.loginLimiter))
	}
	loginChain = append(loginChain, rt.auth.Login)
	api.POST("/auth/login", loginChain...)
	api.GET("/catalog", rt.reservations.Catalog)

	secured := api.Group("")
	secured.Use(middleware.JWT(rt.tokens))
	secured.POST("/auth/logout", rt.auth.Logout)
	secured.GET("/auth/me", rt.auth.Me)
	secured.GET("/slots/availability", rt.reservations.Availability)
	secured.GET("/reservations/me", rt.reservations.Mine)
	secured.GET("/reservations/quota", rt.reservations.Quota)
	secured.POST("/reservations", rt.reservations.Submit)
	secured.DELETE("/reservations/:id", rt.reservations.Cancel)

	staff := secured.Group("")
	staff.Use(middleware.RequireStaff())
	staff.GET("/reservations", rt.reservations.List)
	staff.GET("/reservations/export", middleware.Audit(rt.audit, logr, models.AuditActionRosterExport, "reservations"), rt.reservations.Export)
	staff.GET("/accounts", rt.accounts.List)
	staff.POST("/accounts", rt.accounts.Create)

	return r
}
