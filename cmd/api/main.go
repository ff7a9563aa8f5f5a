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

	httptransport "github.com/spec-kit/ticket-copilot/internal/api/http"
	"github.com/spec-kit/ticket-copilot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-copilot/internal/auth"
	"github.com/spec-kit/ticket-copilot/internal/bootstrap"
	"github.com/spec-kit/ticket-copilot/internal/config"
	"github.com/spec-kit/ticket-copilot/internal/events"
	"github.com/spec-kit/ticket-copilot/internal/observability"
	"github.com/spec-kit/ticket-copilot/internal/repository"
	"github.com/spec-kit/ticket-copilot/internal/service"
	"github.com/spec-kit/ticket-copilot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}
	defer rt.Close()

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, 128)
	workers := worker.StartNotificationWorker(ctx, notificationService)

	var runsHandler *handlers.RunsHandler
	if pool := rt.Postgres.PoolHandle(); pool != nil {
		audit := service.NewAuditService(dispatcher, repository.NewRunRepository(pool), logger)
		audit.RegisterHandlers()
		runsHandler = handlers.NewRunsHandler(audit)
	}

	metrics := observability.NewMetrics()
	ticketService := service.NewTicketService(service.TicketDependencies{
		Pipeline:   rt.Pipeline,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, cfg.Auth.Required)

	readiness := map[string]handlers.Pinger{}
	if rt.Postgres.PoolHandle() != nil {
		readiness["postgres"] = rt.Postgres
	}
	if rt.Redis.ClientHandle() != nil {
		readiness["redis"] = rt.Redis
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:           cfg.App.RequestTimeout(),
		RequestsPerSecond: cfg.App.RequestsPerSecond,
		Burst:             cfg.App.Burst,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Runs:           runsHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	workers.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
