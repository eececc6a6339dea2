package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Default values applied when the environment leaves a setting empty
const (
	DefaultAppPort          = "3000"
	DefaultJWTTTL           = 24 * time.Hour
	DefaultCacheTTL         = 60 * time.Second
	DefaultGeminiEndpoint   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel      = "gemini-2.0-flash-001"
	DefaultPremiumPrice     = 50000
	DefaultFreeTierLimit    = 5
	DefaultMaxBodyBytes     = 16 << 10
	DefaultRateLimitRPS     = 5
	DefaultRateLimitBurst   = 10
	DefaultExternalAttempts = 3
)

// Config holds the application configuration
type Config struct {
	AppPort  string // Application port
	IsProd   bool   // Is production environment
	LogLevel string // Logrus level name

	DBDriver    string // mysql, postgres or memory
	DBUser      string // Database user
	DBPassword  string // Database password
	DBHost      string // Database host
	DBPort      string // Database port
	DBName      string // Database name
	DatabaseURL string // Full DSN, overrides the assembled one

	JWTSecret string        // JWT secret key
	JWTTTL    time.Duration // Lifetime of issued tokens

	RedisAddr string        // Redis server address, empty disables the cache
	RedisPass string        // Redis password
	RedisDB   int           // Redis database number
	CacheTTL  time.Duration // TTL of cached list responses

	GeminiAPIKey   string // Translation API key
	GeminiEndpoint string // Translation API base URL
	GeminiModel    string // Translation model name

	GoogleClientID string // OAuth client id (token audience)

	MidtransServerKey       string // Payment gateway server key
	MidtransClientKey       string // Payment gateway client key
	MidtransIsProduction    bool   // Use the production gateway
	MidtransVerifySignature bool   // Verify notification signatures
	PremiumPrice            int64  // Price of the premium upgrade

	FreeTierEntryLimit  int      // Max entries for free accounts
	MaxBodyBytes        int64    // Request body ceiling
	RateLimitRPS        int      // Public route requests per second per client
	RateLimitBurst      int      // Public route burst per client
	CORSOrigins         []string // Allowed browser origins
	ExternalMaxAttempts int      // Attempts for outbound calls
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:  getString("APP_PORT", DefaultAppPort),
		IsProd:   os.Getenv("IS_PROD") == "true",
		LogLevel: getString("LOG_LEVEL", "info"),

		DBDriver:    getString("DB_DRIVER", "mysql"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBHost:      getString("DB_HOST", "127.0.0.1"),
		DBPort:      os.Getenv("DB_PORT"),
		DBName:      os.Getenv("DB_NAME"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getDuration("JWT_TTL", DefaultJWTTTL),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisPass: os.Getenv("REDIS_PASS"),
		RedisDB:   getInt("REDIS_DB", 0),
		CacheTTL:  getDuration("CACHE_TTL", DefaultCacheTTL),

		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiEndpoint: getString("GEMINI_ENDPOINT", DefaultGeminiEndpoint),
		GeminiModel:    getString("GEMINI_MODEL", DefaultGeminiModel),

		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),

		MidtransServerKey:       os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransClientKey:       os.Getenv("MIDTRANS_CLIENT_KEY"),
		MidtransIsProduction:    os.Getenv("MIDTRANS_IS_PRODUCTION") == "true",
		MidtransVerifySignature: os.Getenv("MIDTRANS_VERIFY_SIGNATURE") == "true",
		PremiumPrice:            int64(getInt("PREMIUM_PRICE", DefaultPremiumPrice)),

		FreeTierEntryLimit:  getInt("FREE_TIER_ENTRY_LIMIT", DefaultFreeTierLimit),
		MaxBodyBytes:        int64(getInt("MAX_BODY_BYTES", DefaultMaxBodyBytes)),
		RateLimitRPS:        getInt("RATE_LIMIT_RPS", DefaultRateLimitRPS),
		RateLimitBurst:      getInt("RATE_LIMIT_BURST", DefaultRateLimitBurst),
		CORSOrigins:         getList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		ExternalMaxAttempts: getInt("EXTERNAL_MAX_ATTEMPTS", DefaultExternalAttempts),
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL // Explicit DSN wins
	}
	switch c.DBDriver {
	case "postgres":
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return "host=" + c.DBHost + " user=" + c.DBUser + " password=" + c.DBPassword +
			" dbname=" + c.DBName + " port=" + port + " sslmode=disable"
	default:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true&collation=utf8mb4_bin" // Case-sensitive comparisons
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback // Missing or malformed
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
