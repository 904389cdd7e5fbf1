package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg := Load()
	assert.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "postgres", cfg.Database.Password)
	assert.Equal(t, "nestlog", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, "http://localhost:9090", cfg.Extraction.BaseURL)
	assert.Equal(t, 60, cfg.Extraction.TimeoutSeconds)

	assert.Equal(t, "./data/pending-blobs", cfg.Blob.Dir)

	assert.Equal(t, 14, cfg.History.WindowDays)
	assert.Equal(t, 60, cfg.History.CacheTTLSeconds)

	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Conn.Broker)
	assert.Equal(t, "nestlog-reconcile", cfg.MQTT.Conn.ClientID)
	assert.Equal(t, "nestlog/reports/ingest", cfg.MQTT.Topic)
	assert.Equal(t, byte(1), cfg.MQTT.Conn.QoS)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("HTTP_ADDR", ":9999")
	os.Setenv("DB_ENABLED", "false")
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "nestlog_test")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("REDIS_DB", "3")
	os.Setenv("EXTRACTION_BASE_URL", "http://extractor:9191")
	os.Setenv("EXTRACTION_TIMEOUT_SECONDS", "15")
	os.Setenv("HISTORY_WINDOW_DAYS", "7")
	os.Setenv("MQTT_ENABLED", "true")
	os.Setenv("MQTT_BROKER", "tcp://broker:8883")
	os.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "nestlog_test", cfg.Database.Database)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "http://extractor:9191", cfg.Extraction.BaseURL)
	assert.Equal(t, 15, cfg.Extraction.TimeoutSeconds)
	assert.Equal(t, 7, cfg.History.WindowDays)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:8883", cfg.MQTT.Conn.Broker)
	assert.Equal(t, "debug", cfg.Log.Level)

	os.Clearenv()
}

func TestParseInt_BadValueFallsBack(t *testing.T) {
	os.Setenv("HISTORY_WINDOW_DAYS", "not-a-number")
	defer os.Clearenv()

	cfg := Load()
	assert.Equal(t, 14, cfg.History.WindowDays)
}
