// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/grocerymesh/logging"
)

// Store backends selectable with GROCERY_STORE.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Port string

	// Store selects the BlobStore backend.
	Store       string
	DataDir     string
	RedisAddr   string
	RedisPrefix string
	DatabaseURL string

	// RabbitMQURL enables order events when set.
	RabbitMQURL string

	// Model is "openai", "anthropic" or empty for quick commands only.
	Model string

	LogLevel  logging.LogLevel
	LogFormat string

	// OTELHost is the OTLP gRPC collector endpoint. Empty disables tracing.
	OTELHost        string
	OTELSampleRatio float64
}

func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		Store:       strings.ToLower(getenv("GROCERY_STORE", StoreFile)),
		DataDir:     getenv("GROCERY_DATA_DIR", "data"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix: getenv("REDIS_PREFIX", "grocerymesh:"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		RabbitMQURL: getenv("RABBITMQ_URL", ""),

		Model: strings.ToLower(getenv("GROCERY_MODEL", "")),

		LogLevel:  logging.ParseLevel(getenv("GROCERY_LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("GROCERY_LOG_FORMAT", "text")),

		OTELHost:        getenv("OTEL_HOST", ""),
		OTELSampleRatio: parseRatio(getenv("OTEL_SAMPLE_RATIO", "1"), 1),
	}
}

// Logger builds the process logger described by c.
func (c Config) Logger(component string) logging.Logger {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	cfg.Component = component
	return logging.NewLogger(cfg)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func parseRatio(v string, def float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		return def
	}
	return f
}
