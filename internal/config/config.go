package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// JWT
	JWTSecret        string
	JWTIssuer        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Admin bootstrap
	AdminEmails string

	// Redis (optional, analytics cache)
	RedisAddr         string
	RedisPassword     string
	AnalyticsCacheTTL time.Duration

	// Storage
	AvatarDir     string
	AvatarMaxSize int

	// Grading
	PassingGrade float64

	// Logging
	LogFile          string
	LogRetentionDays int

	// Server
	AppName     string
	Port        string
	CORSOrigins string
	Env         string
	SentryDSN   string

	// Roles table override (yaml)
	RolesConfigPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnvAny("localhost", "DB_HOST", "NEON_HOST", "VITE_NEON_HOST"),
		DBPort:      getEnvAny("5432", "DB_PORT", "NEON_PORT", "VITE_NEON_PORT"),
		DBUser:      getEnvAny("postgres", "DB_USER", "NEON_USER", "VITE_NEON_USER"),
		DBPassword:  getEnvAny("", "DB_PASSWORD", "NEON_PASSWORD", "VITE_NEON_PASSWORD"),
		DBName:      getEnvAny("crms", "DB_NAME", "NEON_DATABASE", "VITE_NEON_DATABASE"),
		DBSSLMode:   getEnvAny("disable", "DB_SSLMODE", "NEON_SSLMODE", "VITE_NEON_SSLMODE"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "crms"),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		AnalyticsCacheTTL: parseDuration(getEnv("ANALYTICS_CACHE_TTL", "5m"), 5*time.Minute),

		AvatarDir:     getEnv("AVATAR_DIR", "data/avatars"),
		AvatarMaxSize: parseInt(getEnv("AVATAR_MAX_SIZE", "256"), 256),

		PassingGrade: parseFloat(getEnv("PASSING_GRADE", "75"), 75),

		LogFile:          getEnv("LOG_FILE", ""),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),

		AppName:     getEnv("APP_NAME", "CRMS"),
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		Env:         getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		RolesConfigPath: getEnv("ROLES_CONFIG_PATH", ""),
	}
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errMissing("JWT_SECRET")
	}
	if c.DatabaseURL == "" && c.DBPassword == "" {
		return errMissing("DB_PASSWORD")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvAny returns the first non-empty variable among keys. Older deployments
// use NEON_* or VITE_NEON_* names for the database settings.
func getEnvAny(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

type missingError string

func errMissing(key string) error { return missingError(key) }

func (e missingError) Error() string {
	return string(e) + " environment variable is required"
}
