// Package config provides configuration management using viper.
// It supports loading from YAML files, an optional .env file and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported locales for rendered transaction descriptions.
var supportedLocales = []string{"en", "bn"}

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
}

// StorageConfig selects the ledger storage backend.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// LedgerConfig holds credit ledger behaviour.
type LedgerConfig struct {
	LockTimeout   time.Duration `mapstructure:"lock_timeout"`
	DefaultLocale string        `mapstructure:"default_locale"`
	// AdminAllowNegative lets admin balance overrides go below zero.
	AdminAllowNegative bool `mapstructure:"admin_allow_negative"`
}

// AdminConfig holds the bearer tokens accepted on admin routes.
// With no tokens the admin API is disabled.
type AdminConfig struct {
	Tokens []string `mapstructure:"tokens"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// IsAdmin checks if a token is one of the configured admin tokens.
func (c *Config) IsAdmin(token string) bool {
	if token == "" {
		return false
	}
	for _, t := range c.Admin.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
// A .env file in the working directory is loaded into the environment first
// if it exists.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. SERVER_ADDR, STORAGE_DRIVER, DATABASE_HOST
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.sqlite_path", "credits.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "credits")
	v.SetDefault("database.name", "credits")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("ledger.lock_timeout", "5s")
	v.SetDefault("ledger.default_locale", "en")
	v.SetDefault("ledger.admin_allow_negative", false)

	v.SetDefault("admin.tokens", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	localeOK := false
	for _, l := range supportedLocales {
		if c.Ledger.DefaultLocale == l {
			localeOK = true
			break
		}
	}
	if !localeOK {
		return fmt.Errorf("unsupported default locale %q", c.Ledger.DefaultLocale)
	}

	if c.Ledger.LockTimeout <= 0 {
		return fmt.Errorf("ledger.lock_timeout must be positive")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	return nil
}
