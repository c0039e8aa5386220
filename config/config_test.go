package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_URL", "APP_ENV", "MONGO_DATABASE", "CURRENCY", "PAYMENT_TIMEOUT", "REQUEST_TIMEOUT", "RABBITMQ_URL", "MAIL_PROVIDER", "CLIENT_URL"} {
		t.Setenv(key, "")
	}

	cfg, _ := LoadConfig()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.AppURL)
	assert.Equal(t, "ecommerce", cfg.MongoDatabase)
	assert.Equal(t, "inr", cfg.Currency)
	assert.Equal(t, 30*time.Minute, cfg.PaymentTimeout)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Empty(t, cfg.MailProvider)
	assert.Equal(t, "http://localhost:5173", cfg.ClientURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CURRENCY", "USD")
	t.Setenv("PAYMENT_TIMEOUT", "45m")
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("MAIL_PROVIDER", "Postmark")
	t.Setenv("CLIENT_URL", "https://shop.example.com/")

	cfg, _ := LoadConfig()
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 45*time.Minute, cfg.PaymentTimeout)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "postmark", cfg.MailProvider)
	assert.Equal(t, "https://shop.example.com", cfg.ClientURL)
}

func TestSecretsFromFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt")
	require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))
	t.Setenv("JWT_SECRET_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STRIPE_SECRET_KEY_FILE", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")

	cfg, _ := LoadConfig()
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "sk_test_env", cfg.StripeSecretKey)
}
