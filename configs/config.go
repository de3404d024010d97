package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Config struct {
	PostgresURI   string
	RedisURI      string
	SecretKey     string
	EncryptionKey string
	CookieName    string
	ServerPort    string
	FrontendURL   string
	R2            R2
	Kafka         Kafka
	OTLPEndpoint  string

	PublishConcurrency   int
	MetricsConcurrency   int
	AutomationInterval   time.Duration
	AutomationLock       bool
	CredentialSweep      time.Duration
	HTTPTimeout          time.Duration
	PlatformRatePerSec   float64
	MediaDownloadLimit   int64
	MediaDownloadTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:   getEnv("POSTGRES_URI", ""),
		RedisURI:      getEnv("REDIS_URI", "localhost:6379"),
		SecretKey:     getEnv("SECRET_KEY", ""),
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "postflow_session"),
		ServerPort:    getEnv("PORT", "3000"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_URL", ""),
		},
		Kafka: Kafka{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_NOTIFICATION_TOPIC", "postflow.publish-events"),
		},
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		PublishConcurrency:   getEnvInt("PUBLISH_CONCURRENCY", 5),
		MetricsConcurrency:   getEnvInt("METRICS_CONCURRENCY", 10),
		AutomationInterval:   getEnvDuration("AUTOMATION_INTERVAL", time.Minute),
		AutomationLock:       getEnvBool("AUTOMATION_LOCK", false),
		CredentialSweep:      getEnvDuration("CREDENTIAL_SWEEP_INTERVAL", 30*time.Minute),
		HTTPTimeout:          getEnvDuration("PLATFORM_HTTP_TIMEOUT", 30*time.Second),
		PlatformRatePerSec:   getEnvFloat("PLATFORM_RATE_PER_SEC", 5),
		MediaDownloadLimit:   int64(getEnvInt("MEDIA_DOWNLOAD_LIMIT_MB", 100)) * 1024 * 1024,
		MediaDownloadTimeout: getEnvDuration("MEDIA_DOWNLOAD_TIMEOUT", 2*time.Minute),
	}
}

// Validate reports the settings the server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.PostgresURI == "" {
		missing = append(missing, "POSTGRES_URI")
	}
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.EncryptionKey == "" {
		missing = append(missing, "ENCRYPTION_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(c.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be 32 bytes, got %d", len(c.EncryptionKey))
	}
	return nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
