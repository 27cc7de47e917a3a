package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("PORT", "")
		t.Setenv("JWT_TTL_HOURS", "")
		t.Setenv("BCRYPT_COST", "")
		t.Setenv("SMTP_PORT", "")

		cfg := Load()
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 24, cfg.JWTTTL)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, 587, cfg.SMTPPort)
		assert.Equal(t, 24*time.Hour, cfg.JWTLifetime())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_TTL_HOURS", "2")
		t.Setenv("USER_CACHE_TTL_MINUTES", "5")
		t.Setenv("LOG_FORMAT", "json")

		cfg := Load()
		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, "s3cret", cfg.JWTSecret)
		assert.Equal(t, 2*time.Hour, cfg.JWTLifetime())
		assert.Equal(t, 5*time.Minute, cfg.UserCacheTTL())
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("trusted proxies list", func(t *testing.T) {
		t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, ,10.0.0.0/8 ")
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.0/8"}, Load().TrustedProxies)

		t.Setenv("TRUSTED_PROXIES", "")
		assert.Empty(t, Load().TrustedProxies)
	})

	t.Run("malformed integers fall back to defaults", func(t *testing.T) {
		t.Setenv("JWT_TTL_HOURS", "soon")
		assert.Equal(t, 24, Load().JWTTTL)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Port: "8080", JWTSecret: "s3cret", JWTTTL: 24}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"non-positive ttl", func(c *Config) { c.JWTTTL = 0 }, "JWT_TTL_HOURS must be positive"},
		{"empty port", func(c *Config) { c.Port = "" }, "PORT must not be empty"},
		{"smtp without sender", func(c *Config) { c.SMTPHost = "smtp.example.com" }, "MAIL_FROM is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg := &Config{GinMode: "release"}
	require.Len(t, cfg.Warnings(), 1)
	assert.Contains(t, cfg.Warnings()[0], "BASE_URL")

	cfg.BaseURL = "https://auth.example.org"
	assert.Empty(t, cfg.Warnings())

	assert.Empty(t, (&Config{GinMode: "debug"}).Warnings())
}
