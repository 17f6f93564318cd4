package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingCredential is returned when the billing secret key is not set.
var ErrMissingCredential = errors.New("STRIPE_SECRET_KEY is not set")

type Config struct {
	Env      string
	Billing  BillingConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
}

type BillingConfig struct {
	SecretKey string
	APIURL    string
	Currency  string
	RowDelay  time.Duration
}

type PathsConfig struct {
	Catalog string
	Results string
	Mirror  string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	CheckpointTTL time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	TopicEvents string
}

type ObservabilityConfig struct {
	JaegerEndpoint  string
	MetricsTextfile string
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Billing: BillingConfig{
			SecretKey: strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
			APIURL:    getEnv("STRIPE_API_URL", ""),
			Currency:  strings.ToLower(getEnv("BILLING_CURRENCY", "usd")),
			RowDelay:  getDuration("ROW_DELAY", 150*time.Millisecond),
		},
		Paths: PathsConfig{
			Catalog: getEnv("CATALOG_PATH", "apps/web/data/products.collection.csv"),
			Results: getEnv("RESULTS_PATH", "stripe_new_links.csv"),
			Mirror:  getEnv("MIRROR_PATH", "framer-import/products.collection.csv"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            redisDB,
			CheckpointTTL: getDuration("REDIS_CHECKPOINT_TTL", 168*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(getEnv("KAFKA_BROKERS", "")),
			TopicEvents: getEnv("KAFKA_TOPIC_CATALOG_EVENTS", "catalog-events"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint:  getEnv("JAEGER_ENDPOINT", ""),
			MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		},
	}

	log.Printf("Config loaded: env=%s, catalog=%s", cfg.Env, cfg.Paths.Catalog)
	return cfg
}

// RequireSecretKey fails when the billing credential is absent.
func (b BillingConfig) RequireSecretKey() error {
	if b.SecretKey == "" {
		return ErrMissingCredential
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		log.Printf("Invalid %s=%q, using %s", key, val, defaultVal)
		return defaultVal
	}
	return d
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
