package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	DatabaseURL         string // Empty selects the in-memory user store
	RedisURL            string // Empty disables the user cache
	BaseURL             string // Root of emailed reset links; empty derives it from the request
	JWTSecret           string // Secret key for JWT token signing
	JWTTTL              int    // JWT token expiration time in hours
	BcryptCost          int
	SMTPHost            string // Empty logs emails instead of sending them
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	MailFrom            string
	LogLevel            string
	LogFormat           string // "text" or "json"
	GinMode             string
	TrustedProxies      []string // Peers whose X-Forwarded-* headers are honoured
	UserCacheTTLMinutes int
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables or defaults", "error", err)
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		BaseURL:             getEnv("BASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTTTL:              getEnvInt("JWT_TTL_HOURS", 24),
		BcryptCost:          getEnvInt("BCRYPT_COST", 12),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		MailFrom:            getEnv("MAIL_FROM", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		GinMode:             getEnv("GIN_MODE", "release"),
		TrustedProxies:      getEnvList("TRUSTED_PROXIES"),
		UserCacheTTLMinutes: getEnvInt("USER_CACHE_TTL_MINUTES", 15),
	}
}

// Validate reports every setting that would prevent the server from starting
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", c.JWTTTL))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.SMTPHost != "" && c.MailFrom == "" {
		errs = append(errs, errors.New("MAIL_FROM is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

// Warnings lists settings that are accepted but unsafe in production
func (c *Config) Warnings() []string {
	var warnings []string
	if c.BaseURL == "" && c.GinMode == "release" {
		warnings = append(warnings, "BASE_URL not set, reset links are built from the client-supplied Host header")
	}
	return warnings
}

// JWTLifetime returns the session token lifetime
func (c *Config) JWTLifetime() time.Duration {
	return time.Duration(c.JWTTTL) * time.Hour
}

// UserCacheTTL returns how long a cached user record stays valid
func (c *Config) UserCacheTTL() time.Duration {
	return time.Duration(c.UserCacheTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items
func getEnvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
