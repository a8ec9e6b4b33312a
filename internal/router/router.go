// Package router wires the gin engine: middleware chain then routes,
// grounded on the teacher's rest.NewRouter wiring shape but scoped to
// this pipeline's ingest/query/health/alerts/pricing surface (§4.4, §4.7).
package router

import (
	"github.com/flexprice/flexprice/internal/api/v1/handlers"
	"github.com/flexprice/flexprice/internal/api/v1/middleware"
	"github.com/flexprice/flexprice/internal/config"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Params struct {
	Config        *config.Configuration
	Logger        *logger.Logger
	RateLimiter   *middleware.RateLimiter
	Events        *handlers.EventsHandler
	Query         *handlers.QueryHandler
	Health        *handlers.HealthHandler
	Alerts        *handlers.AlertsHandler
	Pricing       *handlers.PricingHandler
}

// NewRouter assembles the gin engine. Public paths (health) bypass
// auth and the rate limiter per §4.4; every other path runs the full
// chain: request-id, CORS, auth, rate-limit, logging, recovery.
func NewRouter(p Params) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestIDMiddleware)
	engine.Use(middleware.CORSMiddleware)
	engine.Use(middleware.RecoveryMiddleware(p.Logger))
	engine.Use(middleware.LoggingMiddleware(p.Logger))

	engine.GET("/health", p.Health.Check)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := engine.Group("/api/v1")
	v1.Use(middleware.APIKeyAuthMiddleware(p.Config, p.Logger))
	v1.Use(p.RateLimiter.Middleware())
	v1.Use(middleware.ErrorHandler())

	v1.POST("/events", p.Events.IngestEvent)
	v1.POST("/events/batch", p.Events.IngestBatch)

	v1.GET("/usage", p.Query.GetUsage)
	v1.GET("/usage/aggregate", p.Query.GetUsageAggregate)
	v1.GET("/usage/by-service", p.Query.GetUsageByService)
	v1.GET("/usage/costs", p.Query.GetUsageCosts)
	v1.GET("/analytics/trends", p.Query.GetTrends)

	v1.GET("/alerts", p.Alerts.ListAlerts)
	v1.POST("/alerts/:id/acknowledge", p.Alerts.AcknowledgeAlert)

	v1.POST("/pricing/estimate", p.Pricing.Estimate)

	return engine
}
