package api

import (
	"net/http" // HTTP status codes
	"slices"   // Origin wildcard check
	"time"     // CORS max age

	"promptionary/internal/config"     // Router settings
	"promptionary/internal/metrics"    // Prometheus middleware and handler
	"promptionary/internal/middleware" // Auth, rate limit, body limit, request id
	"promptionary/internal/service"    // Workflows behind the handlers

	"github.com/gin-contrib/cors" // CORS for the browser client
	"github.com/gin-gonic/gin"    // Gin web framework
	"github.com/sirupsen/logrus"  // Logging library
)

// Services bundles the workflows the router exposes
type Services struct {
	Accounts   *service.AccountService
	Categories *service.CategoryService
	Entries    *service.EntryService
	Payments   *service.PaymentService
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// NewRouter wires middleware and every route
func NewRouter(cfg *config.Config, svc Services) *gin.Engine {
	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New() // Own request logging replaces gin's
	r.Use(gin.Recovery())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Warnf("failed to set trusted proxies: %v", err)
	}

	r.Use(
		middleware.RequestID(),                 // X-Request-ID in and out
		metrics.Middleware(),                   // HTTP metrics per route
		cors.New(corsConfig(cfg.CORSOrigins)),  // Browser client
		middleware.BodyLimit(cfg.MaxBodyBytes), // 413 for oversized bodies
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }) // Liveness
	r.GET("/metrics", gin.WrapH(metrics.Handler()))                                         // Prometheus exposition

	// Public routes, throttled per client
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware()
	r.POST("/accounts", limiter, RegisterHandler(svc.Accounts))         // Registration endpoint
	r.POST("/sessions", limiter, LoginHandler(svc.Accounts))            // Login endpoint
	r.POST("/sessions/oauth", limiter, OAuthLoginHandler(svc.Accounts)) // Google sign-in endpoint
	r.POST("/payments/notification", NotificationHandler(svc.Payments)) // Gateway webhook, never throttled

	// Everything else requires a bearer token
	auth := middleware.JWTAuthMiddleware(svc.Accounts)

	accounts := r.Group("/accounts", auth)
	accounts.GET("/me", GetProfileHandler(svc.Accounts))    // Profile endpoint
	accounts.PUT("/me", UpdateProfileHandler(svc.Accounts)) // Profile update endpoint

	categories := r.Group("/categories", auth)
	categories.GET("", ListCategoriesHandler(svc.Categories))
	categories.POST("", CreateCategoryHandler(svc.Categories))
	categories.GET("/:id", GetCategoryHandler(svc.Categories))
	categories.PUT("/:id", UpdateCategoryHandler(svc.Categories))
	categories.DELETE("/:id", DeleteCategoryHandler(svc.Categories))

	entries := r.Group("/entries", auth)
	entries.GET("", ListEntriesHandler(svc.Entries))
	entries.POST("", CreateEntryHandler(svc.Entries))
	entries.GET("/:id", GetEntryHandler(svc.Entries))
	entries.PUT("/:id", UpdateEntryHandler(svc.Entries))
	entries.DELETE("/:id", DeleteEntryHandler(svc.Entries))

	payments := r.Group("/payments", auth)
	payments.GET("", ListPaymentsHandler(svc.Payments))
	payments.POST("", CreatePaymentHandler(svc.Payments))
	payments.POST("/:id/complete", CompletePaymentHandler(svc.Payments))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	return r
}
