package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/storefront-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/storefront-api/internal/account"
	"github.com/redmonkez12/storefront-api/internal/auth"
	"github.com/redmonkez12/storefront-api/internal/config"
	"github.com/redmonkez12/storefront-api/internal/email"
	httpServer "github.com/redmonkez12/storefront-api/internal/http"
	"github.com/redmonkez12/storefront-api/internal/jobs"
	"github.com/redmonkez12/storefront-api/internal/logging"
	"github.com/redmonkez12/storefront-api/internal/ratelimit"
	"github.com/redmonkez12/storefront-api/internal/user"
)

// @title           Storefront API
// @version         1.0
// @description     Account and credential service for the storefront: registration, login, password reset, profiles and admin blocking.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:5000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx := context.Background()

	store, closeStore, err := account.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			logger.Error("failed to close account store", "error", err.Error())
		}
	}()

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	rateLimiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit)

	clock := auth.SystemClock{}
	tokenService, err := auth.NewTokenService(cfg.Auth, clock)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params)
	resets := auth.NewResetManager(store, hasher, clock)
	emailService := email.NewService(cfg.Email)

	authService := auth.NewService(store, hasher, tokenService, resets, emailService, logger)

	authHandler := auth.NewHandler(authService, rateLimiter)
	authMiddleware := auth.NewMiddleware(tokenService, store)
	userHandler := user.NewHandler(authService)

	scheduler := jobs.NewScheduler(authService, cfg.Jobs.ResetSweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	router := httpServer.NewRouter(cfg, authHandler, userHandler, authMiddleware, logger)
	server := httpServer.NewServer(cfg.Server, router, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("scheduler did not stop cleanly", "error", err.Error())
		}

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
