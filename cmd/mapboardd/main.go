package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mapboard/mapboard/internal/config"
	"github.com/mapboard/mapboard/internal/logger"
	"github.com/mapboard/mapboard/internal/ratelimit"
	"github.com/mapboard/mapboard/internal/server"
	"github.com/mapboard/mapboard/pkg/mapstore"
)

func main() {
	// 1. Load environment variables (.env is optional, real env wins)
	_ = godotenv.Load()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		fmt.Fprintf(os.Stderr, "Error: REDIS_URL must be set\n")
		os.Exit(1)
	}

	// 2. Parse Redis URL
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid REDIS_URL: %v\n", err)
		os.Exit(1)
	}

	// 3. Load mapboard.yml configuration
	cfgPath := os.Getenv("MAPBOARD_CONFIG")
	if cfgPath == "" {
		if _, statErr := os.Stat("mapboard.yml"); statErr == nil {
			cfgPath = "mapboard.yml"
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if addr := os.Getenv("MAPBOARD_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if instance := os.Getenv("MAPBOARD_INSTANCE"); instance != "" {
		cfg.Instance = instance
	}

	log := logger.New(cfg.Debug)
	defer log.Sync()

	// 4. Create the map store
	store, err := mapstore.NewStore(redisOpts, cfg.Instance, mapstore.Seed())
	if err != nil {
		log.Fatal("Failed to create map store", zap.Error(err))
	}
	defer store.Close()

	// 5. Verify Redis connectivity, retrying while Redis comes up
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelPing()

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), pingCtx)
	if err := backoff.Retry(func() error { return store.Ping(pingCtx) }, bo); err != nil {
		log.Fatal("Redis not accessible", zap.String("redis_url", redisURL), zap.Error(err))
	}

	// 6. Build the HTTP server
	limiter := ratelimit.New(cfg.RateLimitWindow(), cfg.RateLimit.MaxRequests)
	srv := server.New(cfg, store, limiter, log)

	log.Info("Starting mapboard server",
		zap.String("addr", cfg.ListenAddr),
		zap.String("instance", cfg.Instance),
	)

	if err := srv.Start(); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}

	// 7. Wait for a shutdown signal, then drain gracefully
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	log.Info("Received signal, shutting down gracefully", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown did not complete cleanly", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Server stopped")
}
