package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverSQLite    = "sqlite"    // modernc.org/sqlite, pure Go
	DriverSQLite3   = "sqlite3"   // github.com/mattn/go-sqlite3, cgo
	DriverPostgres  = "postgres"  // gorm.io/driver/postgres
	DriverSurrealDB = "surrealdb" // github.com/surrealdb/surrealdb.go
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `yaml:"port"`
	Env            string        `yaml:"env"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	// AuthRateLimit is requests per minute per client on register and
	// login; zero disables the limit
	AuthRateLimit  int           `yaml:"auth_rate_limit"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// DatabaseConfig selects the storage backend. DSN is used by the SQL
// drivers; the host/namespace fields by SurrealDB.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Namespace   string `yaml:"namespace"`
	Database    string `yaml:"database"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string `yaml:"private_key_path"`
	PublicKeyPath  string `yaml:"public_key_path"`
	ExpirationMins int    `yaml:"expiration_mins"`
	Issuer         string `yaml:"issuer"`
}

// UploadsConfig holds recipe image storage settings
type UploadsConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// JobsConfig holds background job settings
type JobsConfig struct {
	DraftPruneSchedule string        `yaml:"draft_prune_schedule"`
	DraftMaxAge        time.Duration `yaml:"draft_max_age"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
			AuthRateLimit:  20,
			IdempotencyTTL: 24 * time.Hour,
		},
		Database: DatabaseConfig{
			Driver:      DriverSQLite,
			DSN:         "data/recipebook.db",
			AutoMigrate: true,
			Host:        "localhost",
			Port:        "8000",
			Namespace:   "recipebook",
			Database:    "main",
			User:        "root",
			Password:    "root",
		},
		JWT: JWTConfig{
			PrivateKeyPath: "./keys/private.pem",
			PublicKeyPath:  "./keys/public.pem",
			ExpirationMins: 60,
			Issuer:         "recipebook",
		},
		Uploads: UploadsConfig{
			Dir:      "data/uploads",
			MaxBytes: 5 << 20,
		},
		Jobs: JobsConfig{
			DraftPruneSchedule: "0 * * * *",
			DraftMaxAge:        24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.Env = getEnv("SERVER_ENV", cfg.Server.Env)
	cfg.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.AllowedOrigins = getSliceEnv("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.AuthRateLimit = getIntEnv("AUTH_RATE_LIMIT", cfg.Server.AuthRateLimit)
	cfg.Server.IdempotencyTTL = getDurationEnv("IDEMPOTENCY_TTL", cfg.Server.IdempotencyTTL)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	cfg.Database.AutoMigrate = getBoolEnv("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.Namespace = getEnv("DB_NAMESPACE", cfg.Database.Namespace)
	cfg.Database.Database = getEnv("DB_DATABASE", cfg.Database.Database)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)

	cfg.JWT.PrivateKeyPath = getEnv("JWT_PRIVATE_KEY_PATH", cfg.JWT.PrivateKeyPath)
	cfg.JWT.PublicKeyPath = getEnv("JWT_PUBLIC_KEY_PATH", cfg.JWT.PublicKeyPath)
	cfg.JWT.ExpirationMins = getIntEnv("JWT_EXPIRATION_MINS", cfg.JWT.ExpirationMins)
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", cfg.JWT.Issuer)

	cfg.Uploads.Dir = getEnv("UPLOADS_DIR", cfg.Uploads.Dir)
	cfg.Uploads.MaxBytes = int64(getIntEnv("UPLOADS_MAX_BYTES", int(cfg.Uploads.MaxBytes)))

	cfg.Jobs.DraftPruneSchedule = getEnv("JOBS_DRAFT_PRUNE_SCHEDULE", cfg.Jobs.DraftPruneSchedule)
	cfg.Jobs.DraftMaxAge = getDurationEnv("JOBS_DRAFT_MAX_AGE", cfg.Jobs.DraftMaxAge)

	cfg.Metrics.Enabled = getBoolEnv("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Path = getEnv("METRICS_PATH", cfg.Metrics.Path)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if c.Server.AuthRateLimit < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must not be negative"))
	}
	if c.Server.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverSQLite3, DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("DB_DSN is required for driver %q", c.Database.Driver))
		}
	case DriverSurrealDB:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be one of %s, %s, %s, %s, got '%s'",
			DriverSQLite, DriverSQLite3, DriverPostgres, DriverSurrealDB, c.Database.Driver))
	}

	if c.IsProduction() && c.JWT.PrivateKeyPath == "" {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
	}
	if c.JWT.PrivateKeyPath == "" && c.JWT.PublicKeyPath == "" {
		errs = append(errs, errors.New("one of JWT_PRIVATE_KEY_PATH or JWT_PUBLIC_KEY_PATH is required"))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	if c.Uploads.Dir == "" {
		errs = append(errs, errors.New("UPLOADS_DIR is required"))
	}
	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOADS_MAX_BYTES must be positive"))
	}

	if c.Jobs.DraftPruneSchedule != "" {
		if _, err := cron.ParseStandard(c.Jobs.DraftPruneSchedule); err != nil {
			errs = append(errs, fmt.Errorf("JOBS_DRAFT_PRUNE_SCHEDULE is invalid: %w", err))
		}
		if c.Jobs.DraftMaxAge <= 0 {
			errs = append(errs, errors.New("JOBS_DRAFT_MAX_AGE must be positive when pruning is scheduled"))
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("METRICS_PATH must start with '/'"))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL is invalid: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel parses the configured level name
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
