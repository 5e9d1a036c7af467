package config

import (
	"errors"
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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Slots     SlotsConfig
	Bookings  BookingsConfig
	Reminders RemindersConfig
	Reports   ReportsConfig
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
	Migrate      bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SlotsConfig tunes the free-slot engine and its cache.
type SlotsConfig struct {
	DefaultDuration time.Duration
	MinDuration     time.Duration
	MaxDuration     time.Duration
	MaxRange        time.Duration
	CacheEnabled    bool
	CacheTTL        time.Duration
}

// BookingsConfig governs the public confirm/cancel token flow.
type BookingsConfig struct {
	TokenTTL time.Duration
}

// RemindersConfig drives the upcoming-appointment reminder job.
type RemindersConfig struct {
	Enabled  bool
	Lead     time.Duration
	Interval time.Duration
	Workers  int
}

// ReportsConfig toggles the CSV/PDF export endpoints.
type ReportsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		Migrate:      v.GetBool("DB_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Slots = SlotsConfig{
		DefaultDuration: parseDuration(v.GetString("SLOT_DEFAULT_DURATION"), 30*time.Minute),
		MinDuration:     parseDuration(v.GetString("SLOT_MIN_DURATION"), 5*time.Minute),
		MaxDuration:     parseDuration(v.GetString("SLOT_MAX_DURATION"), 4*time.Hour),
		MaxRange:        parseDuration(v.GetString("SLOT_MAX_RANGE"), 31*24*time.Hour),
		CacheEnabled:    v.GetBool("SLOT_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("SLOT_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Bookings = BookingsConfig{
		TokenTTL: parseDuration(v.GetString("BOOKING_TOKEN_TTL"), 48*time.Hour),
	}

	cfg.Reminders = RemindersConfig{
		Enabled:  v.GetBool("ENABLE_REMINDERS"),
		Lead:     parseDuration(v.GetString("REMINDER_LEAD"), 24*time.Hour),
		Interval: parseDuration(v.GetString("REMINDER_INTERVAL"), 15*time.Minute),
		Workers:  v.GetInt("REMINDER_WORKERS"),
	}

	cfg.Reports = ReportsConfig{
		Enabled: v.GetBool("ENABLE_REPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "agenda")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "agenda-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SLOT_DEFAULT_DURATION", "30m")
	v.SetDefault("SLOT_MIN_DURATION", "5m")
	v.SetDefault("SLOT_MAX_DURATION", "4h")
	v.SetDefault("SLOT_MAX_RANGE", "744h")
	v.SetDefault("SLOT_CACHE_ENABLED", false)
	v.SetDefault("SLOT_CACHE_TTL", "2m")

	v.SetDefault("BOOKING_TOKEN_TTL", "48h")

	v.SetDefault("ENABLE_REMINDERS", false)
	v.SetDefault("REMINDER_LEAD", "24h")
	v.SetDefault("REMINDER_INTERVAL", "15m")
	v.SetDefault("REMINDER_WORKERS", 1)

	v.SetDefault("ENABLE_REPORTS", true)
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
