package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/assistencia-service/internal/api/http"
	"github.com/spec-kit/assistencia-service/internal/api/http/handlers"
	"github.com/spec-kit/assistencia-service/internal/auth"
	"github.com/spec-kit/assistencia-service/internal/clock"
	"github.com/spec-kit/assistencia-service/internal/config"
	"github.com/spec-kit/assistencia-service/internal/directory"
	"github.com/spec-kit/assistencia-service/internal/events"
	"github.com/spec-kit/assistencia-service/internal/itemlock"
	"github.com/spec-kit/assistencia-service/internal/ledger"
	"github.com/spec-kit/assistencia-service/internal/observability"
	"github.com/spec-kit/assistencia-service/internal/persistence"
	"github.com/spec-kit/assistencia-service/internal/repository"
	"github.com/spec-kit/assistencia-service/internal/repository/memory"
	"github.com/spec-kit/assistencia-service/internal/service"
	"github.com/spec-kit/assistencia-service/internal/worker"
	"github.com/spec-kit/assistencia-service/internal/workflow"
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

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := newStore(cfg, pg, logger)

	var locker itemlock.Locker = itemlock.NewLocalLocker()
	if redis.Enabled() {
		locker = itemlock.NewRedisLocker(redis.ClientHandle(), cfg.Assistance.LockTTL)
	}

	dispatcher := events.NewInMemoryDispatcher()
	var sink events.Sink
	var notifier *worker.NotificationWorker
	if cfg.RabbitMQ.Enabled {
		publisher, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
		if err != nil {
			logger.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		defer publisher.Close()
		notifier = worker.NewNotificationWorker(publisher, 256, logger)
		go notifier.Run(ctx)
		sink = notifier
	}
	service.NewNotificationService(dispatcher, logger, sink).RegisterHandlers()

	resolver := directory.NewResolver(directory.Dependencies{
		Repo:     store.Directory(),
		Cache:    redis.ClientHandle(),
		CacheTTL: cfg.Assistance.DirectoryCacheTTL,
		Timeout:  cfg.Assistance.CollaboratorTimeout,
		Logger:   logger,
		Metrics:  metrics,
	})
	machine := workflow.NewMachine()

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:          store,
		Directory:      resolver,
		Machine:        machine,
		Clock:          clock.System{},
		Dispatcher:     dispatcher,
		Logger:         logger,
		SLAWarningDays: cfg.Assistance.SLAWarningDays,
	})
	assistanceService := service.NewAssistanceService(service.AssistanceDependencies{
		Store:      store,
		Machine:    machine,
		Ledger:     ledger.NewService(cfg.Assistance.CollaboratorTimeout, logger, metrics),
		Directory:  resolver,
		Locker:     locker,
		Clock:      clock.System{},
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	authMiddleware := auth.NewAuthMiddleware(tokens, cfg.Auth.Required)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Items:          handlers.NewItemsHandler(ticketService, assistanceService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	if notifier != nil {
		notifier.Wait()
	}
}

func newStore(cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) repository.Store {
	if pg.Enabled() {
		return repository.NewPostgresStore(pg.PoolHandle())
	}
	mem := memory.NewStore()
	for _, id := range cfg.Memory.Deposits {
		mem.AddDeposit(id, "Depósito "+id)
	}
	for _, id := range cfg.Memory.Assistances {
		mem.AddAssistance(id, "Assistência "+id)
	}
	logger.Warn("using in-memory store; data is lost on restart",
		zap.Int("deposits", len(cfg.Memory.Deposits)),
		zap.Int("assistances", len(cfg.Memory.Assistances)))
	return mem
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
