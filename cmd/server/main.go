package main

import (
	"context" // context package is needed for Redis operations
	"time"    // Retry backoff

	"promptionary/internal/api"       // Custom package for API handlers
	"promptionary/internal/config"    // Custom package for configuration
	"promptionary/internal/db"        // Database connection
	"promptionary/internal/oauth"     // Google sign-in verification
	"promptionary/internal/payment"   // Midtrans Snap client
	"promptionary/internal/service"   // Application workflows
	"promptionary/internal/translate" // Gemini translation client
	"promptionary/internal/utils"     // Cache implementations

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

const retryBase = 500 * time.Millisecond // First backoff of outbound calls

// setupLogger configures logrus from the environment
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// setupCache connects to Redis, or disables caching when no address is set
func setupCache(cfg *config.Config) utils.Cache {
	if cfg.RedisAddr == "" {
		logrus.Info("REDIS_ADDR not set, list caching disabled")
		return utils.NopCache{}
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	return utils.NewRedisCache(redisClient)
}

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	setupLogger(cfg)

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}

	st, closeStore, err := db.OpenStore(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	defer closeStore()

	cache := setupCache(cfg)

	translator := translate.NewGemini(cfg.GeminiEndpoint, cfg.GeminiAPIKey, cfg.GeminiModel,
		translate.WithRetry(cfg.ExternalMaxAttempts, retryBase))
	gateway := payment.NewSnap(cfg.MidtransServerKey, cfg.MidtransClientKey, cfg.MidtransIsProduction,
		payment.WithRetry(cfg.ExternalMaxAttempts, retryBase))
	verifier := oauth.NewGoogle(cfg.GoogleClientID)

	if cfg.MidtransVerifySignature && cfg.MidtransServerKey == "" {
		logrus.Fatal("MIDTRANS_VERIFY_SIGNATURE needs MIDTRANS_SERVER_KEY")
	}

	r := api.NewRouter(cfg, api.Services{
		Accounts:   service.NewAccountService(st, verifier, cfg.JWTSecret, cfg.JWTTTL),
		Categories: service.NewCategoryService(st, cache, cfg.CacheTTL),
		Entries:    service.NewEntryService(st, translator, cache, cfg.CacheTTL, cfg.FreeTierEntryLimit),
		Payments:   service.NewPaymentService(st, gateway, cfg.PremiumPrice, cfg.MidtransServerKey, cfg.MidtransVerifySignature),
	})

	logrus.WithFields(logrus.Fields{
		"port":   cfg.AppPort,
		"driver": cfg.DBDriver,
		"prod":   cfg.IsProd,
	}).Info("Server running") // Log server start

	// Start the server on port cfg.AppPort
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
