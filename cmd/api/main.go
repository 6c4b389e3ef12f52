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

	httptransport "github.com/naturebeauty/storefront-api/internal/api/http"
	"github.com/naturebeauty/storefront-api/internal/api/http/handlers"
	"github.com/naturebeauty/storefront-api/internal/auth"
	"github.com/naturebeauty/storefront-api/internal/config"
	"github.com/naturebeauty/storefront-api/internal/events"
	"github.com/naturebeauty/storefront-api/internal/mail"
	"github.com/naturebeauty/storefront-api/internal/oauth"
	"github.com/naturebeauty/storefront-api/internal/observability"
	"github.com/naturebeauty/storefront-api/internal/persistence"
	"github.com/naturebeauty/storefront-api/internal/repository"
	"github.com/naturebeauty/storefront-api/internal/service"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var accounts repository.AccountRepository
	if pg.Pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		accounts = repository.NewAccountRepository(pg.Pool)
	} else {
		accounts = repository.NewMemoryAccountRepository()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger).RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Accounts:   accounts,
		Mailer:     mail.New(cfg.Mail, logger),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	gate := auth.NewGate(authService.TokenManager(), accounts)

	providers := oauth.NewRegistry(cfg.OAuth)
	if len(providers) == 0 {
		logger.Info("no oauth providers configured")
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts: handlers.NewAccountsHandler(authService),
		OAuth: handlers.NewOAuthHandler(authService, providers,
			oauth.NewStateStore(redis.Client, cfg.OAuth.StateTTL()), cfg.OAuth.ClientURL, logger),
		Gate: gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
