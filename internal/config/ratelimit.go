package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig defines the request rate limiter.  The limiter is a
// Redis-backed token bucket shared by all instances; when disabled or
// when no Redis client is available requests pass through unthrottled.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size, also the burst ceiling
	RefillTokens   int           // tokens added per refill interval
	RefillInterval time.Duration
	TTL            time.Duration // idle bucket expiry
	Prefix         string        // key namespace
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig.  Defaults allow 100 requests per minute per client.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 100),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 100),
		RefillInterval: envDuration("RATE_LIMIT_REFILL_INTERVAL", time.Minute),
		TTL:            envDuration("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Minute
	}
	// A bucket must outlive several refill intervals, otherwise idle
	// clients get a fresh bucket before their tokens would have refilled.
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
