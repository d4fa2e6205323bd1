package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// State backends selectable with STATE_BACKEND.
const (
	StateBackendSQLite = "sqlite"
	StateBackendRedis  = "redis"
	StateBackendMemory = "memory"
)

// Catalog sources selectable with CATALOG_SOURCE.
const (
	CatalogSourceDB   = "db"
	CatalogSourceFile = "file"
)

type Config struct {
	Environment string
	Port        string
	BaseURL     string
	DBPath      string

	// StaticHosting disables every call to the payment backend; checkout
	// always takes the demo path.
	StaticHosting bool

	Session struct {
		Secret string
		Secure bool
	}

	Catalog struct {
		Source string
		Path   string
	}

	State struct {
		Backend   string
		Retention time.Duration
		RedisURL  string
	}

	Checkout struct {
		DemoFallback  bool
		DemoDelay     time.Duration
		IntentTimeout time.Duration
		NotifyTimeout time.Duration
		Currency      string
	}

	Payments struct {
		// BackendURL points checkout at a remote payment proxy instead of
		// calling Stripe directly.
		BackendURL      string
		BreakerFailures int
		BreakerTimeout  time.Duration
	}

	Stripe struct {
		PublishableKey string
		SecretKey      string
		WebhookSecret  string
	}

	Email struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
		AdminTo  string
	}

	Recaptcha struct {
		SecretKey string
		MinScore  float64
	}

	Kafka struct {
		Brokers []string
	}
}

// LoadConfig reads the configuration from the environment, after loading a
// .env file if one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var errs []error
	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8000"),
		DBPath:      getEnv("DB_PATH", "./db/khaista.db"),
	}
	config.StaticHosting = getEnvBool("STATIC_HOSTING", false, &errs)

	// Session
	config.Session.Secret = getEnv("SESSION_SECRET", "development-session-secret-change-me")
	config.Session.Secure = getEnvBool("SESSION_SECURE", config.Environment == "production", &errs)

	// Catalog
	config.Catalog.Source = getEnv("CATALOG_SOURCE", CatalogSourceDB)
	config.Catalog.Path = getEnv("CATALOG_PATH", "./data/products.json")

	// State
	config.State.Backend = getEnv("STATE_BACKEND", StateBackendSQLite)
	config.State.Retention = getEnvDuration("STATE_RETENTION", 90*24*time.Hour, &errs)
	config.State.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")

	// Checkout
	config.Checkout.DemoFallback = getEnvBool("CHECKOUT_DEMO_FALLBACK", true, &errs)
	config.Checkout.DemoDelay = getEnvDuration("CHECKOUT_DEMO_DELAY", 700*time.Millisecond, &errs)
	config.Checkout.IntentTimeout = getEnvDuration("PAYMENT_INTENT_TIMEOUT", 10*time.Second, &errs)
	config.Checkout.NotifyTimeout = getEnvDuration("ORDER_NOTIFY_TIMEOUT", 30*time.Second, &errs)
	config.Checkout.Currency = strings.ToLower(getEnv("CHECKOUT_CURRENCY", "usd"))

	// Payments
	config.Payments.BackendURL = getEnv("PAYMENT_BACKEND_URL", "")
	config.Payments.BreakerFailures = getEnvInt("PAYMENT_BREAKER_FAILURES", 3, &errs)
	config.Payments.BreakerTimeout = getEnvDuration("PAYMENT_BREAKER_TIMEOUT", 30*time.Second, &errs)

	// Stripe
	config.Stripe.PublishableKey = getEnv("STRIPE_PUBLISHABLE_KEY", "")
	config.Stripe.SecretKey = getEnv("STRIPE_SECRET_KEY", "")
	config.Stripe.WebhookSecret = getEnv("STRIPE_WEBHOOK_SECRET", "")

	// Email
	config.Email.Host = getEnv("SMTP_HOST", "")
	config.Email.Port = getEnvInt("SMTP_PORT", 587, &errs)
	config.Email.Username = getEnv("SMTP_USERNAME", "")
	config.Email.Password = getEnv("SMTP_PASSWORD", "")
	config.Email.From = getEnv("EMAIL_FROM", "hello@khaistaboutique.com")
	config.Email.AdminTo = getEnv("ADMIN_EMAIL", "")

	// Recaptcha
	config.Recaptcha.SecretKey = getEnv("RECAPTCHA_SECRET_KEY", "")
	config.Recaptcha.MinScore = getEnvFloat("RECAPTCHA_MIN_SCORE", 0.5, &errs)

	// Kafka
	config.Kafka.Brokers = getEnvList("KAFKA_BROKERS")

	if err := config.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.State.Backend {
	case StateBackendSQLite, StateBackendRedis, StateBackendMemory:
	default:
		return fmt.Errorf("STATE_BACKEND must be one of sqlite, redis, memory; got %q", c.State.Backend)
	}
	switch c.Catalog.Source {
	case CatalogSourceDB, CatalogSourceFile:
	default:
		return fmt.Errorf("CATALOG_SOURCE must be db or file; got %q", c.Catalog.Source)
	}
	if c.Environment == "production" && strings.HasPrefix(c.Session.Secret, "development-") {
		return errors.New("SESSION_SECRET must be set in production")
	}
	return nil
}

// BackendAvailable reports whether checkout may contact a payment backend.
func (c *Config) BackendAvailable() bool {
	if c.StaticHosting {
		return false
	}
	return c.Stripe.SecretKey != "" || c.Payments.BackendURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, value))
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", key, value))
		return defaultValue
	}
	return f
}

// getEnvDuration accepts Go durations plus a day suffix ("90d").
func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := parseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return defaultValue
	}
	return d
}

func parseDuration(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count %q", days)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
