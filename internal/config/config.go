package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	Environment     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string

	JWTSecret           string
	MpesaWebhookSecret  string
	StripeWebhookSecret string

	// Empty base URLs keep the gateways in sandbox mode.
	MpesaBaseURL  string
	StripeBaseURL string
	StripeAPIKey  string

	ResendAPIKey string
	FromEmail    string
	AdminEmail   string

	// TaxRateBP is the tax rate in basis points (1600 = 16% VAT).
	TaxRateBP int64

	RateLimit  int
	RateWindow time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnvInt("DB_PORT", 5432),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "couture"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret"),
		MpesaWebhookSecret:  getEnv("MPESA_WEBHOOK_SECRET", "dev-mpesa-secret"),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", "dev-stripe-secret"),

		MpesaBaseURL:  getEnv("MPESA_BASE_URL", ""),
		StripeBaseURL: getEnv("STRIPE_BASE_URL", ""),
		StripeAPIKey:  getEnv("STRIPE_API_KEY", ""),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", "orders@luimichy.example"),
		AdminEmail:   getEnv("ADMIN_EMAIL", "admin@luimichy.example"),

		TaxRateBP: int64(getEnvInt("TAX_RATE_BP", 1600)),

		RateLimit:  getEnvInt("RATE_LIMIT", 30),
		RateWindow: getEnvDuration("RATE_WINDOW", time.Minute),
	}
}

func (c *Config) Development() bool {
	return c.Environment != "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
