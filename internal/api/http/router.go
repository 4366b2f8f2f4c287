package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-canvas/internal/api/http/handlers"
	"github.com/spec-kit/ticket-canvas/internal/auth"
	"github.com/spec-kit/ticket-canvas/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Canvas         *handlers.CanvasHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	CanvasSecret   string
	Logger         *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	canvasGroup := app.Group("/canvas", canvasSignatureMiddleware(cfg.CanvasSecret, logger))
	canvasGroup.Post("/initialize", cfg.Canvas.Initialize)
	canvasGroup.Post("/submit", cfg.Canvas.Submit)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(auth.RoleAdmin))
	admin.Get("/operations", cfg.Admin.ListOperations)
	admin.Get("/operations/:identity", cfg.Admin.GetOperation)
	admin.Delete("/operations/:identity", cfg.Admin.ClearOperation)
}
