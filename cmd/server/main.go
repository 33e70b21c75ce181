package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aeronav/airport-finder/internal/actions"
	"github.com/aeronav/airport-finder/internal/api"
	"github.com/aeronav/airport-finder/internal/aviation"
	"github.com/aeronav/airport-finder/internal/cache"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	accessKey := mustEnv("AVIATIONSTACK_ACCESS_KEY")
	adminToken := mustEnv("ADMIN_TOKEN")
	baseURL := getEnv("AVIATIONSTACK_BASE_URL", aviation.DefaultBaseURL)
	redisURL := os.Getenv("REDIS_URL")
	missPolicy := aviation.ParseMissPolicy(getEnv("CODE_LOOKUP_MISS_POLICY", "fallback"))
	port := getEnv("PORT", "8080")

	ctx := context.Background()

	// The TTL cache: Redis when configured, in-process memory otherwise.
	var store cache.Store
	if redisURL != "" {
		redisStore, err := cache.Connect(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		store = redisStore
		log.Info("using redis cache")
	} else {
		store = cache.NewMemory()
		log.Info("using in-memory cache")
	}
	defer func() { _ = store.Close() }()

	// Wire dependencies.
	client := aviation.New(aviation.Config{
		BaseURL:    baseURL,
		AccessKey:  accessKey,
		Store:      store,
		MissPolicy: missPolicy,
		Logger:     log,
	})
	acts := actions.New(client, log)
	handlers := api.NewHandlers(acts, log)
	router := api.NewRouter(handlers, adminToken, store, log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", port, "miss_policy", string(missPolicy))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
