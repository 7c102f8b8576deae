package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("NEON_HOST", "")
	t.Setenv("VITE_NEON_HOST", "")

	cfg := Load()
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 75.0, cfg.PassingGrade)
}

func TestLoadDatabaseFallbacks(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("NEON_HOST", "")
	t.Setenv("VITE_NEON_HOST", "vite.example.com")
	assert.Equal(t, "vite.example.com", Load().DBHost)

	t.Setenv("NEON_HOST", "neon.example.com")
	assert.Equal(t, "neon.example.com", Load().DBHost)

	t.Setenv("DB_HOST", "db.example.com")
	assert.Equal(t, "db.example.com", Load().DBHost)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "h", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "1", DBSSLMode: "require"}
	assert.Equal(t, "host=h user=u password=p dbname=n port=1 sslmode=require TimeZone=UTC", cfg.DSN())

	cfg.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.DSN())
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET environment variable is required")

	cfg.JWTSecret = "s"
	assert.EqualError(t, cfg.Validate(), "DB_PASSWORD environment variable is required")

	cfg.DatabaseURL = "postgres://x"
	assert.NoError(t, cfg.Validate())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("nope", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
