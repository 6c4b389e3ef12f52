package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("AUTH_TOKEN_TTL_DAYS", "")
	t.Setenv("AUTH_PASSWORD_RESET_TTL_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 10*time.Minute, cfg.Auth.PasswordResetTTL())
	assert.Equal(t, 10*time.Minute, cfg.OAuth.StateTTL())
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("AUTH_TOKEN_TTL_DAYS", "7")
	t.Setenv("AUTH_PASSWORD_RESET_TTL_MINUTES", "15")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")
	t.Setenv("MAIL_SMTP_HOST", "smtp.example.com")
	t.Setenv("OAUTH_GOOGLE_CLIENT_ID", "id")
	t.Setenv("OAUTH_GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 15*time.Minute, cfg.Auth.PasswordResetTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Mail.Enabled())
	assert.True(t, cfg.OAuth.Google.Enabled())
	assert.False(t, cfg.OAuth.GitHub.Enabled())
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}
