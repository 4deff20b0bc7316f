package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Source    SourceConfig
	Sync      SyncConfig
	Catalog   CatalogConfig
	Bootstrap BootstrapConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
	MigrationsDir  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// SourceConfig holds the coordinates of the external content source.
type SourceConfig struct {
	BaseURL     string
	SpaceID     string
	Environment string
	AccessToken string
	ContentType string
	Timeout     time.Duration // zero means no client timeout
}

type SyncConfig struct {
	Interval  time.Duration
	OnStartup bool
}

type CatalogConfig struct {
	DefaultPageSize int
}

// BootstrapConfig describes the admin account ensured at startup.
type BootstrapConfig struct {
	Username string
	Password string
	Email    string
}

// ErrMissingJWTSecret is returned by Validate when no signing key is configured
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Validate checks the settings the API cannot safely start without
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func Load() *Config {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("MIGRATIONS_DIR", "migrations")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("JWT_EXPIRATION_TIME", 3600)
	viper.SetDefault("SOURCE_BASE_URL", "https://cdn.contentful.com")
	viper.SetDefault("SOURCE_CONTENT_TYPE", "product")
	viper.SetDefault("SOURCE_TIMEOUT_SECONDS", 0)
	viper.SetDefault("SYNC_INTERVAL_MINUTES", 60)
	viper.SetDefault("SYNC_ON_STARTUP", true)
	viper.SetDefault("DEFAULT_PAGE_SIZE", 5)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	pageSize := viper.GetInt("DEFAULT_PAGE_SIZE")
	if pageSize < 1 {
		pageSize = 5
	}

	interval := time.Duration(viper.GetInt("SYNC_INTERVAL_MINUTES")) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			MigrationsDir:  viper.GetString("MIGRATIONS_DIR"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  viper.GetBool("RATE_LIMIT_ENABLED"),
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("JWT_SECRET"),
			Expiration: time.Duration(viper.GetInt("JWT_EXPIRATION_TIME")) * time.Second,
		},
		Source: SourceConfig{
			BaseURL:     viper.GetString("SOURCE_BASE_URL"),
			SpaceID:     viper.GetString("SPACE_ID"),
			Environment: viper.GetString("ENVIRONMENT_EXTERNAL"),
			AccessToken: viper.GetString("EXTERNAL_API_TOKEN"),
			ContentType: viper.GetString("SOURCE_CONTENT_TYPE"),
			Timeout:     time.Duration(viper.GetInt("SOURCE_TIMEOUT_SECONDS")) * time.Second,
		},
		Sync: SyncConfig{
			Interval:  interval,
			OnStartup: viper.GetBool("SYNC_ON_STARTUP"),
		},
		Catalog: CatalogConfig{
			DefaultPageSize: pageSize,
		},
		Bootstrap: BootstrapConfig{
			Username: viper.GetString("BOOTSTRAP_USERNAME"),
			Password: viper.GetString("BOOTSTRAP_PASSWORD"),
			Email:    viper.GetString("BOOTSTRAP_EMAIL"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
