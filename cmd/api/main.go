package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/llanos33/Petmatch-sub000/internal/config"
	"github.com/llanos33/Petmatch-sub000/internal/logger"
	"github.com/llanos33/Petmatch-sub000/internal/repository"
	"github.com/llanos33/Petmatch-sub000/internal/server"
	"github.com/llanos33/Petmatch-sub000/internal/service"
	"github.com/llanos33/Petmatch-sub000/internal/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// Load .env into the environment before viper reads it
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	if cfg.JWT.Secret == "" {
		log.Warn("JWT_SECRET not set, using an insecure development-only secret")
		cfg.JWT.Secret = "insecure-dev-secret"
	}

	log.Info("Starting Petmatch storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("data_dir", cfg.Storage.DataDir),
	)

	// Open the JSON file store
	st, err := store.New(cfg.Storage.DataDir, log)
	if err != nil {
		log.Fatal("Failed to open data store", zap.Error(err))
	}
	log.Info("Data store health check", zap.Any("health", st.Health()))

	// Seed the catalog on first run
	if err := store.SeedProducts(st, cfg.Storage.SeedFile, log); err != nil {
		log.Fatal("Failed to seed catalog", zap.Error(err))
	}

	// Bootstrap the admin account
	userRepo := repository.NewUserRepository(st)
	userService := service.NewUserService(userRepo, repository.NewRefreshTokenRepository(), service.NewEntitlementStore(), cfg.JWT.Secret)
	if err := userService.EnsureAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		log.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	// Optional redis client for rate limiting
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, rate limiting disabled", zap.Error(err))
			redisClient = nil
		}
	}

	// Create server
	srv := server.NewServer(cfg, log, st, redisClient)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
