package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/infonest-auth/internal/api/http"
	"github.com/spec-kit/infonest-auth/internal/api/http/handlers"
	"github.com/spec-kit/infonest-auth/internal/auth"
	"github.com/spec-kit/infonest-auth/internal/config"
	"github.com/spec-kit/infonest-auth/internal/events"
	"github.com/spec-kit/infonest-auth/internal/observability"
	"github.com/spec-kit/infonest-auth/internal/persistence"
	"github.com/spec-kit/infonest-auth/internal/repository"
	"github.com/spec-kit/infonest-auth/internal/service"
	"github.com/spec-kit/infonest-auth/internal/worker"
)

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var userRepo repository.UserRepository
	if pool := pg.PoolHandle(); pool != nil {
		userRepo = repository.NewUserRepository(pool)
	} else {
		logger.Warn("using in-memory credential store; accounts are lost on restart")
		userRepo = repository.NewMemoryUserRepository()
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordAlgorithm, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to build password hasher", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Hasher:     hasher,
		Tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), cfg.Auth.ClockSkew()),
		Limiter:    service.NewLoginLimiter(redis, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockDuration()),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	gate := auth.NewGate(authService.TokenManager(), auth.NewExemptMatcher(cfg.Auth.ExemptPaths...), logger,
		auth.WithOutcomeObserver(metrics))

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readinessChecks(cfg.Auth, userRepo, redis))

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Auth:    handlers.NewAuthHandler(authService),
		Me:      handlers.NewMeHandler(),
		Gate:    gate,
		Metrics: metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// readinessChecks lists the dependencies /health/ready waits on. Redis only
// backs the login limiter, which fails open, so it counts only when enabled.
func readinessChecks(authCfg config.AuthConfig, users, redis handlers.Pinger) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"users": users}
	if authCfg.LoginMaxAttempts > 0 {
		checks["redis"] = redis
	}
	return checks
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
