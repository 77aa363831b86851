package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string

	HTTPPort       string
	GRPCHealthPort string

	DBDriver       string
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBPath         string
	MigrationsPath string

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	KafkaEnabled bool
	KafkaBrokers []string

	JWTSecret  string
	SessionTTL time.Duration

	CheckoutAPIURL        string
	CheckoutAPIKey        string
	CheckoutWebhookSecret string
	CheckoutCurrency      string
	PublicBaseURL         string

	UploadsDir string
	AdminUIDir string

	LogLevel  string
	LogFormat string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the environment, after applying a .env file when one exists.
// Every malformed value is reported, not just the first.
func Load() (*Config, error) {
	return load(true)
}

// LoadDatabase is Load without the server secrets, for tools that only
// touch the store.
func LoadDatabase() (*Config, error) {
	return load(false)
}

func load(server bool) (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCHealthPort: getEnv("GRPC_HEALTH_PORT", "50051"),

		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         p.integer("DB_PORT", 5432),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "aelo"),
		DBPath:         getEnv("DB_PATH", "aelo.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", ""),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "aelo"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaEnabled: p.boolean("KAFKA_ENABLED", false),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionTTL: p.duration("SESSION_TTL", 24*time.Hour),

		CheckoutAPIURL:        getEnv("CHECKOUT_API_URL", "https://api.stripe.com"),
		CheckoutAPIKey:        getEnv("CHECKOUT_API_KEY", ""),
		CheckoutWebhookSecret: getEnv("CHECKOUT_WEBHOOK_SECRET", ""),
		CheckoutCurrency:      strings.ToLower(getEnv("CHECKOUT_CURRENCY", "cad")),
		PublicBaseURL:         getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		UploadsDir: getEnv("UPLOADS_DIR", "uploads"),
		AdminUIDir: getEnv("ADMIN_UI_DIR", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		RequestTimeout:  p.duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations/" + cfg.DBDriver
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		p.errs = append(p.errs, fmt.Errorf("DB_DRIVER: must be postgres or sqlite, got %q", cfg.DBDriver))
	}
	if server && cfg.JWTSecret == "" {
		p.errs = append(p.errs, errors.New("JWT_SECRET: must be set"))
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		p.errs = append(p.errs, errors.New("KAFKA_BROKERS: must list at least one broker when KAFKA_ENABLED"))
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SecureCookies reports whether the public site is served over TLS.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicBaseURL, "https://")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type parser struct {
	errs []error
}

func (p *parser) integer(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	if v <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: must be positive", key))
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
