package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/service"
	"github.com/fieldops/fieldops-api/pkg/config"
	"github.com/fieldops/fieldops-api/pkg/logger"
	"github.com/fieldops/fieldops-api/pkg/middleware/actor"
	corsmiddleware "github.com/fieldops/fieldops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fieldops/fieldops-api/pkg/middleware/requestid"
)

// Handlers groups everything the router mounts. Nil entries skip their
// routes, which keeps partial wiring possible in tests.
type Handlers struct {
	Health        *HealthHandler
	Clients       *ClientHandler
	Cases         *CaseHandler
	Interventions *InterventionHandler
	Devices       *DeviceHandler
	Quotes        *QuoteHandler
	Reviews       *ReviewHandler
	Dashboard     *DashboardHandler
	Exports       *ExportHandler
	Metrics       *service.MetricsService
}

// NewRouter builds the gin engine with the common middleware chain and all
// API routes mounted under the configured prefix.
func NewRouter(cfg *config.Config, logr *zap.Logger, handlers Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(actor.Middleware(cfg.Actor.Secret))
	if handlers.Metrics != nil {
		r.Use(handlers.Metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(handlers.Metrics.Handler()))
	}

	if handlers.Health != nil {
		r.GET("/health", handlers.Health.Health)
		r.GET("/ready", handlers.Health.Ready)
	}

	api := r.Group(cfg.APIPrefix)

	if handlers.Clients != nil {
		clients := api.Group("/clients")
		clients.POST("", handlers.Clients.Create)
		clients.GET("", handlers.Clients.List)
		clients.GET("/:id", handlers.Clients.Get)
		clients.PATCH("/:id", handlers.Clients.Update)
		clients.POST("/:id/sites", handlers.Clients.AddSite)
	}

	if handlers.Cases != nil {
		cases := api.Group("/cases")
		cases.POST("", handlers.Cases.Create)
		cases.GET("", handlers.Cases.List)
		cases.GET("/:id", handlers.Cases.Get)
		cases.PATCH("/:id", handlers.Cases.Update)
		cases.POST("/:id/close", handlers.Cases.Close)
		cases.POST("/:id/interventions", handlers.Cases.CreateIntervention)
	}

	if handlers.Interventions != nil {
		interventions := api.Group("/interventions")
		interventions.GET("", handlers.Interventions.List)
		if handlers.Exports != nil {
			interventions.GET("/export.csv", handlers.Exports.InterventionsCSV)
		}
		interventions.GET("/:id", handlers.Interventions.Get)
		interventions.GET("/:id/logs", handlers.Interventions.Logs)
		interventions.POST("/:id/assign", handlers.Interventions.Assign)
		interventions.POST("/:id/status", handlers.Interventions.Transition)
		interventions.POST("/:id/media", handlers.Interventions.AddMedia)
		interventions.POST("/:id/quote-request", handlers.Interventions.RequestQuote)
		interventions.POST("/:id/device-proposals", handlers.Interventions.ProposeDevice)
		if handlers.Exports != nil {
			interventions.GET("/:id/report", handlers.Exports.InterventionReport)
		}
	}

	if handlers.Devices != nil {
		devices := api.Group("/devices")
		devices.GET("", handlers.Devices.List)
		devices.GET("/proposals", handlers.Devices.PendingProposals)
		devices.POST("/proposals/:id/validate", handlers.Devices.ValidateProposal)
		devices.POST("/proposals/:id/reject", handlers.Devices.RejectProposal)
		devices.GET("/:id", handlers.Devices.Get)
		devices.PATCH("/:id", handlers.Devices.Update)
	}

	if handlers.Quotes != nil {
		quotes := api.Group("/quotes")
		quotes.POST("", handlers.Quotes.Create)
		quotes.GET("", handlers.Quotes.List)
		quotes.GET("/:id", handlers.Quotes.Get)
		quotes.PATCH("/:id", handlers.Quotes.Update)
		quotes.POST("/:id/link-request/:requestId", handlers.Quotes.LinkRequest)
		quotes.POST("/:id/mark-sent", handlers.Quotes.MarkSent)
		quotes.POST("/:id/mark-accepted", handlers.Quotes.MarkAccepted)
	}

	if handlers.Reviews != nil {
		reviews := api.Group("/reviews")
		reviews.GET("", handlers.Reviews.List)
		reviews.POST("/:id/resolve", handlers.Reviews.Resolve)
	}

	if handlers.Dashboard != nil {
		api.GET("/dashboard", handlers.Dashboard.Summary)
	}

	if handlers.Exports != nil {
		api.GET("/exports/:token", handlers.Exports.Download)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})

	return r
}
