// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Local Cache Configuration
	CacheDriver string `mapstructure:"CACHE_DRIVER"` // "sqlite" (default) or "postgres"
	CachePath   string `mapstructure:"CACHE_PATH"`   // sqlite file path

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSL_MODE"`
	DBTimezone string `mapstructure:"DB_TIMEZONE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Remote Store Gateway
	RemoteStoreURL     string        `mapstructure:"REMOTE_STORE_URL"`
	RemoteStoreToken   string        `mapstructure:"REMOTE_STORE_TOKEN"`
	RemoteStoreTimeout time.Duration `mapstructure:"REMOTE_STORE_TIMEOUT_SECONDS"`

	// Change Feed (Kafka)
	KafkaBrokers []string `mapstructure:"-"`
	KafkaBroker  string   `mapstructure:"KAFKA_BROKERS"` // comma-separated
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID string   `mapstructure:"KAFKA_GROUP_ID"`

	// Debounce windows
	RefreshDebounce  time.Duration `mapstructure:"REFRESH_DEBOUNCE_MS"`
	FallbackDebounce time.Duration `mapstructure:"FALLBACK_DEBOUNCE_MS"`

	// Cron Jobs
	ReconcileSweepSchedule string `mapstructure:"RECONCILE_SWEEP_SCHEDULE"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("CACHE_DRIVER", "sqlite")
	v.SetDefault("CACHE_PATH", "notifications.db")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "naarscars_notify")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("REMOTE_STORE_URL", "http://localhost:9000/api/v1")
	v.SetDefault("REMOTE_STORE_TOKEN", "")
	v.SetDefault("REMOTE_STORE_TIMEOUT_SECONDS", 10)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "notification-changes")
	v.SetDefault("KAFKA_GROUP_ID", "naarscars-notify")

	v.SetDefault("REFRESH_DEBOUNCE_MS", 250)
	v.SetDefault("FALLBACK_DEBOUNCE_MS", 1000)

	v.SetDefault("RECONCILE_SWEEP_SCHEDULE", "@every 15m")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Duration fields arrive as bare numbers; normalize to their units.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.RemoteStoreTimeout = time.Duration(v.GetInt("REMOTE_STORE_TIMEOUT_SECONDS")) * time.Second
	cfg.RefreshDebounce = time.Duration(v.GetInt("REFRESH_DEBOUNCE_MS")) * time.Millisecond
	cfg.FallbackDebounce = time.Duration(v.GetInt("FALLBACK_DEBOUNCE_MS")) * time.Millisecond

	cfg.KafkaBrokers = splitAndTrim(cfg.KafkaBroker)

	return &cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
