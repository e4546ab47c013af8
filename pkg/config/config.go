package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for expediente-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8480"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Case-log database (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Result cache backend (optional)
	Redis RedisConfig `yaml:"redis"`

	// Engine tunables
	Engine EngineConfig `yaml:"engine"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"tramita"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"caselog"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"./migrations"`
}

// RedisConfig holds the optional Redis result-cache configuration.
// An empty host disables the Redis tier; the in-memory cache still runs.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// EngineConfig holds defaults for the analytics pipeline.
type EngineConfig struct {
	// MinSharePercent is the default minimum population share (in percent)
	// a flow needs to be reported. Callers can override it per request.
	MinSharePercent float64 `yaml:"min_share_percent" env:"ENGINE_MIN_SHARE_PERCENT" env-default:"0.5"`

	// CacheTTLMinutes is how long computed result sets stay cached.
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" env:"ENGINE_CACHE_TTL_MINUTES" env-default:"15"`

	// CacheMaxEntries bounds the in-memory result cache.
	CacheMaxEntries int `yaml:"cache_max_entries" env:"ENGINE_CACHE_MAX_ENTRIES" env-default:"128"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.MinSharePercent < 0 || c.Engine.MinSharePercent > 100 {
		return fmt.Errorf("min_share_percent must be between 0 and 100, got %v", c.Engine.MinSharePercent)
	}
	if c.Engine.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache_max_entries must be > 0, got %d", c.Engine.CacheMaxEntries)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
