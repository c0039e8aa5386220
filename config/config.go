package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	AppURL         string
	Env            string
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	RequestTimeout time.Duration

	MailProvider        string
	SendGridAPIKey      string
	PostmarkServerToken string
	EmailSender         string

	StripeSecretKey     string
	StripeWebhookSecret string
	ClientURL           string
	Currency            string
	PaymentTimeout      time.Duration

	RabbitMQURL     string
	OrderExchange   string
	OrderQueue      string
	DeadLetterQueue string
	DelayExchange   string
}

// LoadConfig reads configuration from the environment, after loading a .env
// file when one is present.
func LoadConfig() (*Config, bool) {
	dotenv := godotenv.Load() == nil
	port := getEnv("PORT", "8000")

	return &Config{
		Port:           port,
		AppURL:         strings.TrimRight(getEnv("APP_URL", "http://localhost:"+port), "/"),
		Env:            getEnv("APP_ENV", "development"),
		MongoURI:       getEnvFromFile("MONGO_URI_FILE", "MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "ecommerce"),
		JWTSecret:      getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", ""),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),

		MailProvider:        strings.ToLower(getEnv("MAIL_PROVIDER", "")),
		SendGridAPIKey:      getEnvFromFile("SENDGRID_API_KEY_FILE", "SENDGRID_API_KEY", ""),
		PostmarkServerToken: getEnvFromFile("POSTMARK_SERVER_TOKEN_FILE", "POSTMARK_SERVER_TOKEN", ""),
		EmailSender:         getEnv("EMAIL_SENDER", "no-reply@example.com"),

		StripeSecretKey:     getEnvFromFile("STRIPE_SECRET_KEY_FILE", "STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnvFromFile("STRIPE_WEBHOOK_SECRET_FILE", "STRIPE_WEBHOOK_SECRET", ""),
		ClientURL:           strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/"),
		Currency:            strings.ToLower(getEnv("CURRENCY", "inr")),
		PaymentTimeout:      getDuration("PAYMENT_TIMEOUT", 30*time.Minute),

		RabbitMQURL:     getEnvFromFile("RABBITMQ_URL_FILE", "RABBITMQ_URL", ""),
		OrderExchange:   getEnv("ORDER_EXCHANGE", "orders_exchange"),
		OrderQueue:      getEnv("ORDER_QUEUE", "orders_queue"),
		DeadLetterQueue: getEnv("DEAD_LETTER_QUEUE", "dead_letter_queue"),
		DelayExchange:   getEnv("DELAY_EXCHANGE", "delay_exchange"),
	}, dotenv
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
