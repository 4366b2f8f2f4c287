package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-canvas/internal/api/http"
	"github.com/spec-kit/ticket-canvas/internal/api/http/handlers"
	"github.com/spec-kit/ticket-canvas/internal/auth"
	"github.com/spec-kit/ticket-canvas/internal/cache"
	"github.com/spec-kit/ticket-canvas/internal/config"
	"github.com/spec-kit/ticket-canvas/internal/conversation"
	"github.com/spec-kit/ticket-canvas/internal/events"
	"github.com/spec-kit/ticket-canvas/internal/httpclient"
	"github.com/spec-kit/ticket-canvas/internal/observability"
	"github.com/spec-kit/ticket-canvas/internal/persistence"
	"github.com/spec-kit/ticket-canvas/internal/service"
	"github.com/spec-kit/ticket-canvas/internal/ticketing"
	"github.com/spec-kit/ticket-canvas/internal/tracker"
	"github.com/spec-kit/ticket-canvas/internal/transcript"
	"github.com/spec-kit/ticket-canvas/internal/worker"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	metaCache := cache.NewRedisCache(redis.Client, cfg.App.Name)

	policy := httpclient.PolicyFromConfig(cfg.Retry)
	ticketingHTTP := httpclient.New(httpclient.Options{
		Name:      "ticketing",
		BaseURL:   cfg.Ticketing.BaseURL,
		BasicUser: cfg.Ticketing.APIKey,
		BasicPass: "X",
		Policy:    policy,
		RateLimit: cfg.Ticketing.RateLimitPerSec,
		Logger:    logger,
		Metrics:   metrics,
	})
	conversationHTTP := httpclient.New(httpclient.Options{
		Name:        "conversation",
		BaseURL:     cfg.Conversation.BaseURL,
		BearerToken: cfg.Conversation.Token,
		Policy:      policy,
		Logger:      logger,
		Metrics:     metrics,
	})

	ticketClient := ticketing.NewClient(ticketing.ClientDependencies{
		HTTP:     ticketingHTTP,
		Cache:    metaCache,
		CacheTTL: cfg.Redis.CacheTTL(),
		Config:   cfg.Ticketing,
		Logger:   logger,
	})
	creator := ticketing.NewCreator(ticketClient, cfg.Ticketing, cfg.Conversation.InboxURL, logger)
	conversations := conversation.NewClient(conversationHTTP, cfg.Conversation.AdminID)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher, service.NewNotifier(conversations, logger))
	runner := worker.NewRunner(logger)

	canvasService := service.NewCanvasService(service.CanvasDependencies{
		Tickets:     ticketClient,
		Creator:     creator,
		Transcripts: transcript.NewFetcher(conversations),
		Tracker:     tracker.New(),
		Dispatcher:  dispatcher,
		Runner:      runner,
		Metrics:     metrics,
		Logger:      logger,
		Settings: service.CanvasSettings{
			ResponseDeadline: cfg.Canvas.ResponseDeadline(),
			DeadlineMargin:   cfg.Canvas.DeadlineMargin(),
			FallbackBudget:   cfg.Canvas.FallbackBudget(),
			StaleAfter:       cfg.Canvas.StaleAfter(),
			RecentLimit:      cfg.Ticketing.RecentLimit,
		},
	})

	if cfg.Admin.JWTSecret == "" {
		logger.Info("ADMIN_JWT_SECRET not provided; admin endpoints reject all requests")
	}
	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Admin.JWTSecret, 0))

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis),
		Canvas:         handlers.NewCanvasHandler(canvasService, logger),
		Admin:          handlers.NewAdminHandler(canvasService.Tracker()),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
		CanvasSecret:   cfg.Canvas.ClientSecret,
		Logger:         logger,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownGrace); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if !canvasService.Wait(ctx) {
		logger.Warn("background ticket tasks still running at shutdown")
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
