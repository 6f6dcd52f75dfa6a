package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ar-tracker/internal/api/http"
	"github.com/spec-kit/ar-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ar-tracker/internal/auth"
	"github.com/spec-kit/ar-tracker/internal/config"
	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/escalation"
	"github.com/spec-kit/ar-tracker/internal/events"
	"github.com/spec-kit/ar-tracker/internal/observability"
	"github.com/spec-kit/ar-tracker/internal/persistence"
	"github.com/spec-kit/ar-tracker/internal/repository"
	"github.com/spec-kit/ar-tracker/internal/service"
	"github.com/spec-kit/ar-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := observability.SetupTracing(ctx, cfg.App.Name, cfg.Telemetry, logger)

	catalog, err := domain.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	var (
		pg         *persistence.Postgres
		ticketRepo repository.TicketRepository
	)
	if cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; using in-memory ticket store")
		ticketRepo = repository.NewMemoryTicketRepository()
	} else {
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		ticketRepo = repository.NewTicketRepository(pg.PoolHandle())
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	cache := persistence.NewEscalationCache(redis, time.Duration(cfg.Redis.EscalationTTL)*time.Second)

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification), logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Catalog:    catalog,
		Dispatcher: dispatcher,
	})

	metrics := observability.NewMetrics()
	monitorOpts := escalation.MonitorOptions{
		Interval:    cfg.Escalation.Interval(),
		Logger:      logger,
		Metrics:     metrics,
		OnEscalated: ticketService.PublishEscalated,
	}
	if cache != nil {
		monitorOpts.Publisher = cache
	}
	monitor := escalation.NewMonitor(escalation.SourceFunc(ticketService.Snapshot), monitorOpts)
	monitorDone := worker.StartEscalationWorker(ctx, monitor, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.Auth.StaffGroup)

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, monitor),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Escalations:    handlers.NewEscalationsHandler(ticketService, monitor, cache),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
	monitorDone.Wait()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
