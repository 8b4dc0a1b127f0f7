package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Admin      AdminConfig
	Compliance ComplianceConfig
	Collector  CollectorConfig
	Kafka      KafkaConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig configures the shared-secret PIN gate guarding mutating endpoints.
type AdminConfig struct {
	PIN           string
	PINHash       string
	SessionSecret string
	SessionTTL    time.Duration
}

// ComplianceConfig tunes compliance evaluation caching.
type ComplianceConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// CollectorConfig governs remote portal collection.
type CollectorConfig struct {
	SourcesFile string
	PageSize    int
	HTTPTimeout time.Duration
	MaxRetries  int
	Backoff     time.Duration
	MaxBackoff  time.Duration
	Interval    time.Duration
	Parallel    bool
	Workers     int
}

// KafkaConfig points the collection notifier at a broker set. Empty brokers disable publishing.
type KafkaConfig struct {
	Brokers         []string
	CollectionTopic string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Admin = AdminConfig{
		PIN:           v.GetString("ADMIN_PIN"),
		PINHash:       v.GetString("ADMIN_PIN_HASH"),
		SessionSecret: v.GetString("ADMIN_SESSION_SECRET"),
		SessionTTL:    parseDuration(v.GetString("ADMIN_SESSION_TTL"), 8*time.Hour),
	}

	cfg.Compliance = ComplianceConfig{
		CacheEnabled: v.GetBool("COMPLIANCE_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("COMPLIANCE_CACHE_TTL"), 10*time.Minute),
	}

	pageSize := v.GetInt("COLLECTOR_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 50
	}
	cfg.Collector = CollectorConfig{
		SourcesFile: v.GetString("COLLECTOR_SOURCES_FILE"),
		PageSize:    pageSize,
		HTTPTimeout: parseDuration(v.GetString("COLLECTOR_HTTP_TIMEOUT"), 15*time.Second),
		MaxRetries:  v.GetInt("COLLECTOR_MAX_RETRIES"),
		Backoff:     parseDuration(v.GetString("COLLECTOR_BACKOFF"), 500*time.Millisecond),
		MaxBackoff:  parseDuration(v.GetString("COLLECTOR_MAX_BACKOFF"), 5*time.Second),
		Interval:    parseDuration(v.GetString("COLLECTOR_INTERVAL"), 0),
		Parallel:    v.GetBool("COLLECTOR_PARALLEL"),
		Workers:     v.GetInt("COLLECTOR_WORKERS"),
	}

	cfg.Kafka = KafkaConfig{
		Brokers:         splitAndTrim(v.GetString("KAFKA_BROKERS")),
		CollectionTopic: v.GetString("KAFKA_COLLECTION_TOPIC"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "UTC")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "gym_ops")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ADMIN_PIN", "")
	v.SetDefault("ADMIN_PIN_HASH", "")
	v.SetDefault("ADMIN_SESSION_SECRET", "dev_admin_secret")
	v.SetDefault("ADMIN_SESSION_TTL", "8h")

	v.SetDefault("COMPLIANCE_CACHE_ENABLED", false)
	v.SetDefault("COMPLIANCE_CACHE_TTL", "10m")

	v.SetDefault("COLLECTOR_SOURCES_FILE", "./sources.yaml")
	v.SetDefault("COLLECTOR_PAGE_SIZE", 50)
	v.SetDefault("COLLECTOR_HTTP_TIMEOUT", "15s")
	v.SetDefault("COLLECTOR_MAX_RETRIES", 3)
	v.SetDefault("COLLECTOR_BACKOFF", "500ms")
	v.SetDefault("COLLECTOR_MAX_BACKOFF", "5s")
	v.SetDefault("COLLECTOR_INTERVAL", "0")
	v.SetDefault("COLLECTOR_PARALLEL", true)
	v.SetDefault("COLLECTOR_WORKERS", 1)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_COLLECTION_TOPIC", "gym-ops.collection-runs")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
