package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/grocerymesh/logging"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "GROCERY_STORE", "GROCERY_DATA_DIR", "RABBITMQ_URL", "GROCERY_MODEL", "OTEL_SAMPLE_RATIO", "GROCERY_LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Empty(t, cfg.Model)
	assert.Equal(t, logging.LogLevelInfo, cfg.LogLevel)
	assert.InDelta(t, 1.0, cfg.OTELSampleRatio, 0)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GROCERY_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("GROCERY_MODEL", "anthropic")
	t.Setenv("GROCERY_LOG_LEVEL", "debug")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "anthropic", cfg.Model)
	assert.Equal(t, logging.LogLevelDebug, cfg.LogLevel)
	assert.InDelta(t, 0.25, cfg.OTELSampleRatio, 1e-9)
}

func TestLoad_InvalidRatioFallsBack(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATIO", "2")
	assert.InDelta(t, 1.0, Load().OTELSampleRatio, 0)

	t.Setenv("OTEL_SAMPLE_RATIO", "often")
	assert.InDelta(t, 1.0, Load().OTELSampleRatio, 0)
}
