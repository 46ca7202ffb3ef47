package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neexbeast/city-explorer/internal/api"
	"github.com/neexbeast/city-explorer/internal/cache"
	"github.com/neexbeast/city-explorer/internal/config"
	"github.com/neexbeast/city-explorer/internal/provider"
	"github.com/neexbeast/city-explorer/internal/resolver"
	"github.com/neexbeast/city-explorer/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func run(ctx context.Context, log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("flushing traces failed", "err", err)
		}
	}()

	st, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var resolverOpts []resolver.Option
	var memoPinger api.Pinger
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		memo := cache.NewCache(redisClient)
		resolverOpts = append(resolverOpts, resolver.WithMemo(memo))
		memoPinger = memo
		log.Info("redis memo enabled")
	}

	// Wire dependencies.
	res := resolver.New(st, newProviders(cfg.Provider), log, resolverOpts...)
	handlers := api.NewHandlers(res, log)
	router := api.NewRouter(handlers, api.RouterConfig{
		Token:          cfg.APIToken,
		RatePerMinute:  cfg.RateLimitPerMinute,
		AllowedOrigins: cfg.AllowedOrigins,
	}, st, memoPinger, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// newProviders builds the provider clients. Each client gets its own
// outbound limiter.
func newProviders(cfg config.Provider) resolver.Providers {
	opts := func(baseURL string) []provider.Option {
		return []provider.Option{
			provider.WithTimeout(cfg.Timeout),
			provider.WithRateLimit(cfg.RateLimit, 1),
			provider.WithBaseURL(baseURL),
		}
	}

	return resolver.Providers{
		Geocoder:   provider.NewGeocodeClient(cfg.GeocodeKey, opts(cfg.GeocodeURL)...),
		Weather:    provider.NewWeatherClient(cfg.WeatherKey, opts(cfg.WeatherURL)...),
		Businesses: provider.NewBusinessClient(cfg.YelpKey, opts(cfg.YelpURL)...),
		Movies:     provider.NewMovieClient(cfg.MovieKey, opts(cfg.MovieURL)...),
	}
}
