package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_EXEMPT_PATHS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 30*time.Second, cfg.Auth.ClockSkew())
	assert.Equal(t, []string{"/auth", "/health", "/metrics"}, cfg.Auth.ExemptPaths)
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordAlgorithm)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("AUTH_EXEMPT_PATHS", " /api/v1/auth , /health ,")
	t.Setenv("AUTH_PASSWORD_ALGORITHM", "ARGON2ID")
	t.Setenv("HTTP_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL())
	assert.Equal(t, []string{"/api/v1/auth", "/health"}, cfg.Auth.ExemptPaths)
	assert.Equal(t, "argon2id", cfg.Auth.PasswordAlgorithm)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
}

func TestValidate(t *testing.T) {
	cfg := Config{Auth: AuthConfig{
		JWTSecret:             "short",
		AccessTokenTTLMinutes: 0,
		ClockSkewSeconds:      -1,
		PasswordAlgorithm:     "md5",
	}}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"AUTH_JWT_SECRET", "AUTH_ACCESS_TOKEN_TTL_MINUTES", "AUTH_CLOCK_SKEW_SECONDS", "md5"} {
		assert.Contains(t, err.Error(), want)
	}
}
