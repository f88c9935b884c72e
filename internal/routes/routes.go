// internal/routes/routes.go
package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/config"
	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/handler"
	"github.com/Softbalance/equipment/internal/metrics"
	"github.com/Softbalance/equipment/internal/middleware"
	"github.com/Softbalance/equipment/internal/service"
	"github.com/Softbalance/equipment/internal/utils"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	DB              handler.Pinger
	Drivers         *driver.Registry
	Relay           *service.RelayService
	Sessions        *service.SessionService
	Executions      *service.ExecutionService
	Discovery       *service.DiscoveryService
	Events          *handler.WebSocketHandler
	Metrics         *metrics.Metrics
	MetricsRegistry *prometheus.Registry
}

// Router holds all dependencies for routing
type Router struct {
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

// NewRouter creates a new router instance
func NewRouter(config *config.Config, logger *zap.Logger, deps Dependencies) *Router {
	return &Router{
		config: config,
		logger: logger,
		deps:   deps,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if r.config.IsDebugEnabled() {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(r.logger))

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger, "/live", "/ready", r.config.Metrics.Path))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	if r.deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(r.deps.Metrics))
	}

	if r.config.Security.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(&r.config.Security)
		router.Use(middleware.RateLimitMiddleware(limiter, utils.NewSecurityLogger(r.logger), r.deps.Metrics))
	}

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	health := handler.NewHealthHandler(r.deps.DB, r.config, r.deps.Drivers.Kinds, r.logger)
	if r.deps.Sessions != nil {
		health.AddCheck("sessions", false, func(context.Context) handler.CheckResult {
			return handler.CheckResult{Status: "healthy", Data: map[string]any{"open": len(r.deps.Sessions.List())}}
		})
	}
	health.RegisterRoutes(router)

	// The print server protocol lives at the root.
	handler.NewRelayHandler(r.deps.Relay, r.logger).RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	handler.NewSessionHandler(r.deps.Sessions, r.logger).RegisterRoutes(apiV1)
	handler.NewExecutionHandler(r.deps.Executions, r.logger).RegisterRoutes(apiV1)
	if r.deps.Discovery != nil {
		handler.NewDiscoveryHandler(r.deps.Discovery, r.logger).RegisterRoutes(apiV1)
	}

	if r.deps.Events != nil {
		r.deps.Events.RegisterRoutes(router.Group("/ws"))
	}

	if r.config.Metrics.Enabled && r.deps.MetricsRegistry != nil {
		router.GET(r.config.Metrics.Path, gin.WrapH(metrics.Handler(r.deps.MetricsRegistry)))
	}

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
