package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	// HTTPTimeout applies to outbound collaborator calls.
	HTTPTimeout time.Duration

	// OverpassEndpoints are tried in order; empty means the built-in
	// public mirrors.
	OverpassEndpoints []string

	ForecastBaseURL string
	// ForecastRateLimit caps outbound forecast calls per second.
	ForecastRateLimit float64

	// Cache freshness window and stale-retention bound.
	CacheTTL    time.Duration
	CacheMaxAge time.Duration
	// SweepInterval controls how often expired in-memory entries are
	// evicted.
	SweepInterval time.Duration

	// RedisAddr switches the cache backend to Redis when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// GeocoderAPIKey enables country back-fill on discovered places.
	GeocoderAPIKey string

	MinCandidates int
	MaxCandidates int
	MaxResults    int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	cfg.Port = getenvDefault("PORT", "8080")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "35s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if v := os.Getenv("OVERPASS_ENDPOINTS"); v != "" {
		for _, ep := range strings.Split(v, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				cfg.OverpassEndpoints = append(cfg.OverpassEndpoints, ep)
			}
		}
	}

	cfg.ForecastBaseURL = os.Getenv("FORECAST_BASE_URL")
	cfg.ForecastRateLimit = getenvFloat("FORECAST_RATE_LIMIT", 2.0)

	cfg.CacheTTL, err = time.ParseDuration(getenvDefault("CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheMaxAge, err = time.ParseDuration(getenvDefault("CACHE_MAX_AGE", "72h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_AGE: %w", err)
	}
	cfg.SweepInterval, err = time.ParseDuration(getenvDefault("CACHE_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SWEEP_INTERVAL: %w", err)
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.MinCandidates = getenvInt("MIN_CANDIDATES", 20)
	cfg.MaxCandidates = getenvInt("MAX_CANDIDATES", 60)
	cfg.MaxResults = getenvInt("MAX_RESULTS", 50)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
