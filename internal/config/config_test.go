package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MONGO_DB", "JWT_EXPIRY", "MQTT_BROKER_URL", "MQTT_TOPIC_PREFIX", "RATE_LIMIT_REQUESTS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "fleet_maintenance", cfg.Mongo.Database)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Empty(t, cfg.MQTT.BrokerURL)
	assert.Equal(t, "fleet/maintenance", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_DB", "depot_ops")
	t.Setenv("JWT_EXPIRY", "12")
	t.Setenv("MQTT_BROKER_URL", "tcp://broker:1883")
	t.Setenv("MQTT_TOPIC_PREFIX", "ops/")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "10")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "depot_ops", cfg.Mongo.Database)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.BrokerURL)
	assert.Equal(t, "ops", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window())
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", time.Hour},
		{"90m", 90 * time.Minute},
		{"48", 48 * time.Hour},
		{"-3", time.Hour},
		{"soon", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.expected, getEnvAsDuration("TEST_DURATION", time.Hour))
		})
	}
}

func TestLoad_NonPositiveRateLimitUsesDefaults(t *testing.T) {
	for _, value := range []string{"0", "-1"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("RATE_LIMIT_REQUESTS", value)
			t.Setenv("RATE_LIMIT_WINDOW_SECONDS", value)

			cfg := Load()

			assert.Equal(t, 100, cfg.RateLimit.Requests)
			assert.Equal(t, time.Minute, cfg.RateLimit.Window())
		})
	}
}

func TestLogConfig_Configure(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)
	defer log.SetFormatter(&log.TextFormatter{})

	LogConfig{Level: "debug", Format: "json"}.Configure()
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	LogConfig{Level: "chatty", Format: "text"}.Configure()
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)
}
