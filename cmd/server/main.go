package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/fieldpass/venue-booking/internal/cache"
	"github.com/fieldpass/venue-booking/internal/config"
	"github.com/fieldpass/venue-booking/internal/database"
	"github.com/fieldpass/venue-booking/internal/engine"
	"github.com/fieldpass/venue-booking/internal/handler"
	"github.com/fieldpass/venue-booking/internal/middleware"
	"github.com/fieldpass/venue-booking/internal/queue"
	"github.com/fieldpass/venue-booking/internal/repository"
	"github.com/fieldpass/venue-booking/internal/router"
)

func main() {
	// A .env file is a development convenience; in production variables
	// come from the orchestrator.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.NewLogger(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	store := repository.NewStore(db)

	// Redis backs both the cache and the rate limiter. When the
	// connection fails the engine runs with a no-op cache, every read
	// hits MySQL and requests pass through unthrottled.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, caching and rate limiting disabled")
	}
	var engineCache engine.Cache = cache.NewNopCache()
	if cacheCfg := config.LoadCacheConfig(); cacheCfg.Enabled && rdb != nil {
		engineCache = cache.NewRedisCache(rdb, cacheCfg.Prefix, logger)
		logger.Info("redis cache enabled", "prefix", cacheCfg.Prefix)
	}

	eng := engine.New(store, engineCache, logger)

	// Payment confirmations arrive over the broker; the consumer keeps
	// reconnecting on its own, so a broker outage never blocks startup.
	go func() {
		if err := queue.StartPaymentConsumer(eng); err != nil {
			logger.Error("payment consumer stopped", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	venues := handler.NewVenueHandler(eng)
	bookings := handler.NewBookingHandler(eng)
	router.RegisterRoutes(e, venues)
	router.RegisterProtected(e, venues, bookings, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
