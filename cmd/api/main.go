package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-core/internal/api/http"
	"github.com/spec-kit/support-core/internal/api/http/handlers"
	"github.com/spec-kit/support-core/internal/auth"
	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/config"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/events"
	"github.com/spec-kit/support-core/internal/observability"
	"github.com/spec-kit/support-core/internal/persistence"
	"github.com/spec-kit/support-core/internal/service"
	"github.com/spec-kit/support-core/internal/store"
	pgstore "github.com/spec-kit/support-core/internal/store/postgres"
	redisstore "github.com/spec-kit/support-core/internal/store/redis"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	clk := clock.System()
	pool := pg.PoolHandle()

	// Postgres-backed stores when DSN is configured, in-memory otherwise.
	var (
		ticketStore   store.Store[domain.Ticket]
		ratingStore   store.Store[domain.Rating]
		customerStore store.CustomerStore
		engineerStore store.EngineerStore
	)
	if pool != nil {
		ticketStore = pgstore.NewTicketStore(pool)
		ratingStore = pgstore.NewRatingStore(pool)
		customerStore = pgstore.NewCustomerStore(pool)
		engineerStore = pgstore.NewEngineerStore(pool)
	} else {
		logger.Warn("running with in-memory stores")
		ticketStore = store.NewMemory(store.TicketSchema(), clk)
		ratingStore = store.NewMemory(store.RatingSchema(), clk)
		customerStore = store.NewMemoryCustomerStore(clk)
		engineerStore = store.NewMemoryEngineerStore(clk)
	}

	var sessionStore store.Store[domain.Session]
	var healthRedis *persistence.Redis
	if err := redis.Ping(ctx); err == nil {
		sessionStore = redisstore.NewSessionStore(redis.Client, clk, cfg.Lifecycle.SessionTTL())
		healthRedis = redis
	} else {
		logger.Warn("redis unreachable; running with in-memory session store", zap.Error(err))
		sessionStore = store.NewMemory(store.SessionSchema(), clk)
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	emitter := events.NewEmitter(dispatcher, clk)

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketStore:   ticketStore,
		Emitter:       emitter,
		Clock:         clk,
		ConfirmWindow: cfg.Lifecycle.AutoConfirmWindow(),
	})
	ratingService := service.NewRatingService(service.RatingDependencies{
		RatingStore: ratingStore,
		TicketStore: ticketStore,
		Emitter:     emitter,
		Clock:       clk,
	})
	sessionService := service.NewSessionService(service.SessionDependencies{
		SessionStore: sessionStore,
		TicketStore:  ticketStore,
		Emitter:      emitter,
		Clock:        clk,
	})
	chatCoordinator := service.NewChatCoordinator(sessionService)
	codeShareCoordinator := service.NewCodeShareCoordinator(sessionService)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CustomerStore: customerStore,
		EngineerStore: engineerStore,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), customerStore, engineerStore)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, healthRedis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Ratings:        handlers.NewRatingsHandler(ratingService),
		Sessions:       handlers.NewSessionsHandler(chatCoordinator, codeShareCoordinator, sessionService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
