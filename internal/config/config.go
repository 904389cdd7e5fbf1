package config

import (
	"os"
	"strconv"

	commoncfg "nestlog-reconcile/pkg/config"
)

// Config nestlog-reconcile service configuration.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled    bool
	Database     commoncfg.DatabaseConfig
	RedisEnabled bool
	Redis        commoncfg.RedisConfig
	Log struct {
		Level  string
		Format string
	}
	Extraction ExtractionConfig
	Blob       BlobConfig
	History    HistoryConfig
	MQTT       MQTTConfig
}

// ExtractionConfig points at the LLM extraction sidecar.
type ExtractionConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// BlobConfig controls where queued report sources are kept.
type BlobConfig struct {
	Dir string
}

// HistoryConfig bounds duplicate detection and the history cache.
type HistoryConfig struct {
	WindowDays      int
	CacheTTLSeconds int
}

// MQTTConfig enables the broker-fed ingest path (default off). Conn carries
// the broker connection settings shared with pkg/mqtt.
type MQTTConfig struct {
	Enabled bool
	Topic   string
	Conn    commoncfg.MQTTConfig
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if the DB is unavailable the service
	// falls back to in-memory stores so the pipeline stays usable.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "nestlog",
		SSLMode:  "disable",
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Extraction.BaseURL = getEnv("EXTRACTION_BASE_URL", "http://localhost:9090")
	cfg.Extraction.APIKey = getEnv("EXTRACTION_API_KEY", "")
	cfg.Extraction.TimeoutSeconds = parseInt(getEnv("EXTRACTION_TIMEOUT_SECONDS", "60"), 60)

	cfg.Blob.Dir = getEnv("BLOB_DIR", "./data/pending-blobs")

	cfg.History.WindowDays = parseInt(getEnv("HISTORY_WINDOW_DAYS", "14"), 14)
	cfg.History.CacheTTLSeconds = parseInt(getEnv("HISTORY_CACHE_TTL_SECONDS", "60"), 60)

	// MQTT ingest path (disabled unless a broker is wired up)
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "nestlog/reports/ingest")
	cfg.MQTT.Conn = commoncfg.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "nestlog-reconcile",
		QoS:      byte(parseInt(getEnv("MQTT_QOS", "1"), 1)),
	}
	cfg.MQTT.Conn.LoadFromEnv("MQTT")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
