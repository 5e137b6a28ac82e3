package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"fleetops-service/internal/auth"
	"fleetops-service/internal/cache"
	"fleetops-service/internal/config"
	"fleetops-service/internal/db"
	"fleetops-service/internal/fleet"
	httphandler "fleetops-service/internal/http"
	"fleetops-service/internal/http/middleware"
	"fleetops-service/internal/logger"
	"fleetops-service/internal/metrics"
	"fleetops-service/internal/repository"
	"fleetops-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	store, closeStore, err := openStore(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	cacheStore, closeCache := openCache(cfg, log)
	defer closeCache()

	m := metrics.New()
	engine := fleet.NewEngine(fleet.Pricing{
		HourlyRate: cfg.Pricing.HourlyRate,
		Currency:   cfg.Pricing.Currency,
	})
	gateway := fleet.NewGateway(engine)
	views := cache.NewViewCache(cacheStore, cfg.Redis.ViewTTL)
	fleetService := service.NewFleetService(store, gateway, views, m, log.With().Str("component", "fleet").Logger())

	scanner := service.NewPredictiveScanner(store, engine, fleet.Thresholds{
		Health:   cfg.Predictive.HealthThreshold,
		Critical: cfg.Predictive.CriticalThreshold,
	}, cfg.Predictive.ScanInterval, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go scanner.Run(ctx)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(fleetService, log)
	router := httphandler.NewRouter(
		handler,
		middleware.Auth(tokenParser),
		middleware.Idempotency(cacheStore, log),
		m.Handler(),
		cfg.Environment,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("store", cfg.Store.Driver).Msg("starting fleetops service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory store, state is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	database, err := db.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewGormStore(database), func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}, nil
}

// openCache prefers redis and falls back to a process-local cache when no
// address is configured or redis is unreachable.
func openCache(cfg *config.Config, log zerolog.Logger) (cache.Store, func()) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, using in-process cache")
		_ = client.Close()
		return cache.NewMemoryStore(), func() {}
	}
	return cache.NewRedisStore(client), func() { _ = client.Close() }
}
