package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("FREE_TIER_ENTRY_LIMIT", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := LoadConfig()

	assert.Equal(t, DefaultAppPort, cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, DefaultJWTTTL, cfg.JWTTTL)
	assert.Equal(t, DefaultFreeTierLimit, cfg.FreeTierEntryLimit)
	assert.Equal(t, int64(DefaultPremiumPrice), cfg.PremiumPrice)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("FREE_TIER_ENTRY_LIMIT", "20")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MIDTRANS_VERIFY_SIGNATURE", "true")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 20, cfg.FreeTierEntryLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.MidtransVerifySignature)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "db", DBName: "dict"}
	assert.Equal(t, "u:p@tcp(db:3306)/dict?parseTime=true&collation=utf8mb4_bin", cfg.DSN())

	cfg.DBDriver = "postgres"
	assert.Equal(t, "host=db user=u password=p dbname=dict port=5432 sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.DSN())
}
