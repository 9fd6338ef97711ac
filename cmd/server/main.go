package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mmynk/dineout/internal/api"
	"github.com/mmynk/dineout/internal/auth"
	"github.com/mmynk/dineout/internal/cache"
	"github.com/mmynk/dineout/internal/catalog"
	"github.com/mmynk/dineout/internal/config"
	"github.com/mmynk/dineout/internal/events"
	"github.com/mmynk/dineout/internal/metrics"
	"github.com/mmynk/dineout/internal/registry"
	"github.com/mmynk/dineout/internal/server"
	"github.com/mmynk/dineout/internal/service"
	"github.com/mmynk/dineout/internal/storage/sqlite"
	"github.com/mmynk/dineout/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config.yaml"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logCloser := logging.Configure(cfg.LogLevel, cfg.LogFile)
	defer logCloser.Close()

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	if cfg.UsingDevSecret() {
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	var (
		restaurantCache cache.RestaurantCache = cache.NewMemory()
		guard           registry.Guard        = registry.NewMemoryGuard()
	)
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		restaurantCache = cache.NewRedis(client, cfg.CacheTTL)
		guard = cache.NewRedisGuard(client, cfg.InFlightTTL)
		logger.Info("Redis cache and in-flight guard enabled")
	}

	var publisher events.Publisher = events.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topics)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
		logger.Info("Kafka publisher enabled", "brokers", cfg.KafkaBrokers)
	}

	reader := catalog.NewReader(store, restaurantCache, logger)
	if cfg.SeedPath != "" {
		restaurants, err := catalog.LoadSeed(cfg.SeedPath)
		if err != nil {
			return err
		}
		n, err := reader.Seed(ctx, restaurants)
		if err != nil {
			return err
		}
		logger.Info("Catalog seeded", "path", cfg.SeedPath, "restaurants", n)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := registry.Dependencies{
		Ratings:   store,
		Reviews:   store,
		Sink:      reader,
		Guard:     guard,
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	handler := server.NewHandler(server.Options{
		Services: api.Services{
			Ratings:     service.NewRatingService(registry.NewRatingRegistry(deps), store, logger),
			Reviews:     service.NewReviewService(registry.NewReviewRegistry(deps), store, logger),
			Restaurants: service.NewRestaurantService(reader, logger),
			Auth:        service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger),
		},
		JWT:         jwtManager,
		Metrics:     m,
		Gatherer:    reg,
		Health:      store,
		CORSOrigins: cfg.CORSOrigins,
	})

	return server.Run(ctx, cfg.Addr(), handler)
}
