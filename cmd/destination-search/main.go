package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/fairskies/destination-search/internal/api/http"
	"github.com/fairskies/destination-search/internal/cache"
	"github.com/fairskies/destination-search/internal/config"
	"github.com/fairskies/destination-search/internal/discovery"
	"github.com/fairskies/destination-search/internal/forecast"
	"github.com/fairskies/destination-search/internal/geocoding"
	"github.com/fairskies/destination-search/internal/scheduler"
	"github.com/fairskies/destination-search/internal/search"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound collaborator calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// TTL cache: Redis when configured, in-memory otherwise. The memory
	// store needs a periodic sweep; Redis expires keys itself.
	var store cache.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store = cache.NewRedisStore(client, cfg.CacheTTL, cfg.CacheMaxAge)
		log.Printf("using redis cache at %s", cfg.RedisAddr)
	} else {
		memStore := cache.NewMemoryStore(cfg.CacheTTL, cfg.CacheMaxAge)
		store = memStore

		sched := scheduler.New(memStore, cfg.SweepInterval)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start cache sweep scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// Collaborators and the ranking pipeline.
	cities := discovery.NewClient(httpClient, store, cfg.OverpassEndpoints, cfg.MinCandidates, search.MaxSearchRadiusKm)
	forecasts := forecast.NewClient(httpClient, store, cfg.ForecastBaseURL, cfg.ForecastRateLimit)
	countries := geocoding.New(cfg.GeocoderAPIKey)

	service := search.NewService(cities, forecasts, countries, cfg.MaxCandidates, cfg.MaxResults)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "destination-search",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "destination-search",
		})
	})

	// Prometheus metrics.
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
