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

	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Backend      BackendConfig
	Availability AvailabilityConfig
	Lookup       LookupConfig
	Uploads      UploadConfig
	Catalog      CatalogConfig
	Notify       NotifyConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify staff tokens issued by the backend.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// BackendConfig points at the enrollment API this engine consumes.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

// AvailabilityConfig tunes the seat availability cache.
type AvailabilityConfig struct {
	TTL         time.Duration
	MinInterval time.Duration
}

// LookupConfig tunes identity-triggered lookups and form sessions.
type LookupConfig struct {
	Debounce       time.Duration
	MinLength      int
	SessionIdleTTL time.Duration
}

// UploadConfig is the validation contract for evidence and identity files.
type UploadConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// CatalogConfig governs Redis caching of the course-type catalog.
type CatalogConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NotifyConfig sizes the new-offerings notification queue and names its optional sinks.
type NotifyConfig struct {
	Workers          int
	BufferSize       int
	FormURL          string
	DiscordToken     string
	DiscordChannelID string
	KafkaBrokers     []string
	KafkaTopic       string
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

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET"), Issuer: v.GetString("JWT_ISSUER")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
	}

	cfg.Backend = BackendConfig{
		BaseURL: strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("BACKEND_TIMEOUT"), 10*time.Second),
		APIKey:  v.GetString("BACKEND_API_KEY"),
	}

	cfg.Availability = AvailabilityConfig{
		TTL:         parseDuration(v.GetString("AVAILABILITY_TTL"), 60*time.Second),
		MinInterval: parseDuration(v.GetString("AVAILABILITY_MIN_INTERVAL"), 2*time.Second),
	}

	minLength := v.GetInt("LOOKUP_MIN_LENGTH")
	if minLength <= 0 {
		minLength = 6
	}
	cfg.Lookup = LookupConfig{
		Debounce:       parseDuration(v.GetString("LOOKUP_DEBOUNCE"), 800*time.Millisecond),
		MinLength:      minLength,
		SessionIdleTTL: parseDuration(v.GetString("SESSION_IDLE_TTL"), 30*time.Minute),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Uploads = UploadConfig{
		MaxFileSizeBytes: maxUpload,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOAD_ALLOWED_MIME_TYPES")),
	}

	cfg.Catalog = CatalogConfig{
		CacheEnabled: v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Notify = NotifyConfig{
		Workers:          v.GetInt("NOTIFY_WORKERS"),
		BufferSize:       v.GetInt("NOTIFY_BUFFER"),
		FormURL:          v.GetString("ENROLLMENT_FORM_URL"),
		DiscordToken:     v.GetString("DISCORD_BOT_TOKEN"),
		DiscordChannelID: v.GetString("DISCORD_CHANNEL_ID"),
		KafkaBrokers:     splitAndTrim(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:3000/api")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("BACKEND_API_KEY", "")

	v.SetDefault("AVAILABILITY_TTL", "60s")
	v.SetDefault("AVAILABILITY_MIN_INTERVAL", "2s")

	v.SetDefault("LOOKUP_DEBOUNCE", "800ms")
	v.SetDefault("LOOKUP_MIN_LENGTH", 6)
	v.SetDefault("SESSION_IDLE_TTL", "30m")

	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_MIME_TYPES", "application/pdf,image/jpeg,image/png,image/webp")

	v.SetDefault("ENABLE_CATALOG_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "10m")

	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_BUFFER", 16)
	v.SetDefault("ENROLLMENT_FORM_URL", "")
	v.SetDefault("DISCORD_BOT_TOKEN", "")
	v.SetDefault("DISCORD_CHANNEL_ID", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "enrollment.offerings")
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
