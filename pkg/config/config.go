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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Search   SearchConfig
	Geocoder GeocoderConfig
	Photos   PhotoConfig
	Backfill BackfillConfig
	Exports  ExportConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SearchConfig tunes the public instructor search endpoint.
type SearchConfig struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
	MaxRadiusKm     float64
	DefaultRadiusKm float64
}

// GeocoderConfig points at the forward geocoding service.
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// PhotoConfig controls instructor photo storage & validation.
type PhotoConfig struct {
	StorageDir       string
	PublicBaseURL    string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// BackfillConfig governs the background geocoding of instructor locations.
type BackfillConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	Interval   time.Duration
}

// ExportConfig toggles the admin directory export endpoints and controls how
// long generated files are retained on disk.
type ExportConfig struct {
	Enabled         bool
	ResultTTL       time.Duration
	CleanupInterval time.Duration
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
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Search = SearchConfig{
		CacheEnabled:    v.GetBool("SEARCH_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("SEARCH_CACHE_TTL"), 5*time.Minute),
		DefaultPageSize: v.GetInt("SEARCH_DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("SEARCH_MAX_PAGE_SIZE"),
		MaxRadiusKm:     v.GetFloat64("SEARCH_MAX_RADIUS_KM"),
		DefaultRadiusKm: v.GetFloat64("SEARCH_DEFAULT_RADIUS_KM"),
	}

	cfg.Geocoder = GeocoderConfig{
		BaseURL:   v.GetString("GEOCODER_BASE_URL"),
		UserAgent: v.GetString("GEOCODER_USER_AGENT"),
		Timeout:   parseDuration(v.GetString("GEOCODER_TIMEOUT"), 5*time.Second),
	}

	maxPhotoSize := v.GetInt64("PHOTOS_MAX_FILE_SIZE")
	if maxPhotoSize <= 0 {
		maxPhotoSize = 5 * 1024 * 1024
	}
	cfg.Photos = PhotoConfig{
		StorageDir:       v.GetString("PHOTOS_STORAGE_DIR"),
		PublicBaseURL:    v.GetString("PHOTOS_PUBLIC_BASE_URL"),
		SignedURLSecret:  v.GetString("PHOTOS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("PHOTOS_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxPhotoSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("PHOTOS_ALLOWED_MIME_TYPES")),
	}

	cfg.Backfill = BackfillConfig{
		Enabled:    v.GetBool("GEOCODE_BACKFILL_ENABLED"),
		Workers:    v.GetInt("GEOCODE_BACKFILL_WORKERS"),
		MaxRetries: v.GetInt("GEOCODE_BACKFILL_RETRIES"),
		RetryDelay: parseDuration(v.GetString("GEOCODE_BACKFILL_RETRY_DELAY"), 30*time.Second),
		Interval:   parseDuration(v.GetString("GEOCODE_BACKFILL_INTERVAL"), 15*time.Minute),
	}

	cfg.Exports = ExportConfig{
		Enabled:         v.GetBool("ENABLE_EXPORTS"),
		ResultTTL:       parseDuration(v.GetString("EXPORT_RESULT_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORT_CLEANUP_INTERVAL"), time.Hour),
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
	v.SetDefault("DB_NAME", "golflink")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SEARCH_CACHE_ENABLED", true)
	v.SetDefault("SEARCH_CACHE_TTL", "5m")
	v.SetDefault("SEARCH_DEFAULT_PAGE_SIZE", 12)
	v.SetDefault("SEARCH_MAX_PAGE_SIZE", 50)
	v.SetDefault("SEARCH_MAX_RADIUS_KM", 500)
	v.SetDefault("SEARCH_DEFAULT_RADIUS_KM", 50)

	v.SetDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "golflink-api/1.0")
	v.SetDefault("GEOCODER_TIMEOUT", "5s")

	v.SetDefault("PHOTOS_STORAGE_DIR", "./uploads/photos")
	v.SetDefault("PHOTOS_PUBLIC_BASE_URL", "/photos")
	v.SetDefault("PHOTOS_SIGNED_URL_SECRET", "dev_photo_secret")
	v.SetDefault("PHOTOS_SIGNED_URL_TTL", "30m")
	v.SetDefault("PHOTOS_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/webp")

	v.SetDefault("GEOCODE_BACKFILL_ENABLED", false)
	v.SetDefault("GEOCODE_BACKFILL_WORKERS", 2)
	v.SetDefault("GEOCODE_BACKFILL_RETRIES", 3)
	v.SetDefault("GEOCODE_BACKFILL_RETRY_DELAY", "30s")
	v.SetDefault("GEOCODE_BACKFILL_INTERVAL", "15m")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORT_RESULT_TTL", "24h")
	v.SetDefault("EXPORT_CLEANUP_INTERVAL", "1h")
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
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
