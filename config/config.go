package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string

	// Ticket/Order API
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	// Circuit breaker around the API
	BreakerMaxRequests int
	BreakerTimeout     time.Duration

	// Redis configuration
	RedisURL   string
	SessionTTL time.Duration

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Checkout flow
	PaymentWidgetTimeout      time.Duration
	RedirectDelay             time.Duration
	CallbackPath              string
	ConfirmationPath          string
	CheckoutPath              string
	EventsPath                string
	DiscountAttemptsPerMinute int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

// LoadConfig reads the environment, preloading .env when one exists.
// Variables already set in the environment win over the file.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		Port:           getEnv("PORT", "8090"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// API
		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000/api"), "/"),
		APIToken:   getEnv("API_TOKEN", ""),
		APITimeout: getEnvAsDuration("API_TIMEOUT", "10s"),

		// Breaker
		BreakerMaxRequests: getEnvAsInt("BREAKER_MAX_REQUESTS", 100),
		BreakerTimeout:     getEnvAsDuration("BREAKER_TIMEOUT", "60s"),

		// Redis
		RedisURL:   getEnv("REDIS_URL", ""),
		SessionTTL: getEnvAsDuration("SESSION_TTL", "1h"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Checkout
		PaymentWidgetTimeout:      getEnvAsDuration("PAYMENT_WIDGET_TIMEOUT", "15m"),
		RedirectDelay:             getEnvAsDuration("REDIRECT_DELAY", "2s"),
		CallbackPath:              getEnv("CALLBACK_PATH", "/payment/callback"),
		ConfirmationPath:          getEnv("CONFIRMATION_PATH", "/payment/success"),
		CheckoutPath:              getEnv("CHECKOUT_PATH", "/checkout"),
		EventsPath:                getEnv("EVENTS_PATH", "/"),
		DiscountAttemptsPerMinute: getEnvAsInt("DISCOUNT_ATTEMPTS_PER_MINUTE", 10),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
